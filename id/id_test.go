package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/vesting/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"ScheduleID", id.NewScheduleID, "vsch_"},
		{"ReleaseID", id.NewReleaseID, "vrel_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := id.NewScheduleID().String()
		if seen[s] {
			t.Fatalf("duplicate id generated: %s", s)
		}
		seen[s] = true
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := id.NewScheduleID()
	parsed, err := id.ParseScheduleID(original.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParseScheduleID(id.NewReleaseID().String()); err == nil {
		t.Error("expected ParseScheduleID to reject a release id")
	}
	if _, err := id.ParseReleaseID(id.NewScheduleID().String()); err == nil {
		t.Error("expected ParseReleaseID to reject a schedule id")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestScanValue(t *testing.T) {
	original := id.NewScheduleID()
	v, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(v); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !fromNil.IsNil() {
		t.Error("expected nil after scanning NULL")
	}

	if err := fromNil.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}
