// Package plugin provides an extensible plugin system for the vesting ledger.
// Plugins can hook into various lifecycle events to extend functionality.
//
// Hooks are emitted after the ledger lock is released, so a hook may call
// the Ledger's query methods. State it reads reflects at least the event it
// was handed.
package plugin

import (
	"context"

	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Schedule hooks
// ──────────────────────────────────────────────────

// OnScheduleCreated is called after a schedule is funded and persisted.
type OnScheduleCreated interface {
	Plugin
	OnScheduleCreated(ctx context.Context, s *schedule.Schedule) error
}

// OnTokensReleased is called after a release has been paid out. s reflects
// the schedule after the release.
type OnTokensReleased interface {
	Plugin
	OnTokensReleased(ctx context.Context, s *schedule.Schedule, amount types.Amount) error
}

// OnReleaseFailed is called when a release was rolled back because the
// payout failed.
type OnReleaseFailed interface {
	Plugin
	OnReleaseFailed(ctx context.Context, s *schedule.Schedule, amount types.Amount, err error) error
}

// OnInvariantViolation is called when a schedule is found with more
// released than vested.
type OnInvariantViolation interface {
	Plugin
	OnInvariantViolation(ctx context.Context, s *schedule.Schedule, vested types.Amount) error
}

// ──────────────────────────────────────────────────
// Owner hooks
// ──────────────────────────────────────────────────

// OnEmergencyWithdraw is called after the owner withdrew custodied funds.
type OnEmergencyWithdraw interface {
	Plugin
	OnEmergencyWithdraw(ctx context.Context, owner, token string, amount types.Amount) error
}

// OnOwnershipTransferred is called after the owner changed.
type OnOwnershipTransferred interface {
	Plugin
	OnOwnershipTransferred(ctx context.Context, previous, next string) error
}
