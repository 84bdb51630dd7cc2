// Package store defines the persistence contract for the vesting ledger.
package store

import (
	"context"
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Store is the unified storage interface for all ledger state.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Schedules are append-only. The only field a store ever changes after
// insertion is Released, and only through UpdateReleased.
type Store interface {
	// Schedule methods
	CreateSchedule(ctx context.Context, s *schedule.Schedule) error
	GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error)
	ListScheduleIDsByBeneficiary(ctx context.Context, beneficiary string) ([]id.ScheduleID, error)
	ListSchedules(ctx context.Context, opts schedule.ListOpts) ([]*schedule.Schedule, error)
	CountSchedules(ctx context.Context) (int64, error)

	// UpdateReleased sets Released to "to" and UpdatedAt to "at" only if
	// Released currently equals "from". It returns vesting.ErrConflict when
	// the stored value differs and vesting.ErrScheduleNotFound for unknown ids.
	UpdateReleased(ctx context.Context, scheduleID id.ScheduleID, from, to types.Amount, at time.Time) error

	// Ownership methods
	GetOwner(ctx context.Context) (string, error)
	SetOwner(ctx context.Context, owner string) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
