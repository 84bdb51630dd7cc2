// Package audithook bridges vesting ledger events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnScheduleCreated      = (*Extension)(nil)
	_ plugin.OnTokensReleased       = (*Extension)(nil)
	_ plugin.OnReleaseFailed        = (*Extension)(nil)
	_ plugin.OnInvariantViolation   = (*Extension)(nil)
	_ plugin.OnEmergencyWithdraw    = (*Extension)(nil)
	_ plugin.OnOwnershipTransferred = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges vesting ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Schedule hooks
// ──────────────────────────────────────────────────

// OnScheduleCreated implements plugin.OnScheduleCreated.
func (e *Extension) OnScheduleCreated(ctx context.Context, s *schedule.Schedule) error {
	return e.record(ctx, ActionScheduleCreated, SeverityInfo, OutcomeSuccess,
		ResourceSchedule, s.ID.String(), CategoryVesting, nil,
		"token", s.Token,
		"beneficiary", s.Beneficiary,
		"amount", s.TotalAmount.String(),
		"start", s.Start,
		"cliff_seconds", int64(s.Cliff.Seconds()),
		"duration_seconds", int64(s.Duration.Seconds()),
		"slice_seconds", int64(s.SlicePeriod.Seconds()),
		"seq", s.Seq,
	)
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnTokensReleased implements plugin.OnTokensReleased. Each payout gets
// its own release ID so repeated partial releases stay distinguishable.
func (e *Extension) OnTokensReleased(ctx context.Context, s *schedule.Schedule, amount types.Amount) error {
	return e.record(ctx, ActionTokensReleased, SeverityInfo, OutcomeSuccess,
		ResourceRelease, id.NewReleaseID().String(), CategoryPayout, nil,
		"schedule_id", s.ID.String(),
		"token", s.Token,
		"beneficiary", s.Beneficiary,
		"amount", amount.String(),
		"released_total", s.Released.String(),
	)
}

// OnReleaseFailed implements plugin.OnReleaseFailed.
func (e *Extension) OnReleaseFailed(ctx context.Context, s *schedule.Schedule, amount types.Amount, err error) error {
	return e.record(ctx, ActionReleaseFailed, SeverityError, OutcomeFailure,
		ResourceRelease, "", CategoryPayout, err,
		"schedule_id", s.ID.String(),
		"token", s.Token,
		"beneficiary", s.Beneficiary,
		"amount", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Owner hooks
// ──────────────────────────────────────────────────

// OnEmergencyWithdraw implements plugin.OnEmergencyWithdraw.
func (e *Extension) OnEmergencyWithdraw(ctx context.Context, owner, token string, amount types.Amount) error {
	return e.record(ctx, ActionEmergencyWithdraw, SeverityWarning, OutcomeSuccess,
		ResourceTreasury, token, CategoryAccess, nil,
		"owner", owner,
		"token", token,
		"amount", amount.String(),
	)
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (e *Extension) OnOwnershipTransferred(ctx context.Context, previous, next string) error {
	return e.record(ctx, ActionOwnershipTransferred, SeverityWarning, OutcomeSuccess,
		ResourceOwner, next, CategoryAccess, nil,
		"previous_owner", previous,
		"new_owner", next,
	)
}

// ──────────────────────────────────────────────────
// Integrity hooks
// ──────────────────────────────────────────────────

// OnInvariantViolation implements plugin.OnInvariantViolation.
func (e *Extension) OnInvariantViolation(ctx context.Context, s *schedule.Schedule, vested types.Amount) error {
	return e.record(ctx, ActionInvariantViolation, SeverityCritical, OutcomeFailure,
		ResourceSchedule, s.ID.String(), CategoryIntegrity, nil,
		"vested", vested.String(),
		"released", s.Released.String(),
		"total", s.TotalAmount.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
