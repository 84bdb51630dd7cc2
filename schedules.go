package vesting

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/release"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// CreateParams describes a new vesting schedule. Durations must be whole
// seconds.
type CreateParams struct {
	Token       string
	Beneficiary string
	Start       time.Time
	Cliff       time.Duration
	Duration    time.Duration
	SlicePeriod time.Duration
	Amount      types.Amount
}

// Validate reports every invalid field at once. The result matches
// ErrInvalidParameters under errors.Is.
func (p CreateParams) Validate() error {
	var errs MultiError

	if p.Token == "" {
		errs.Add(ValidationError{Field: "token", Message: "must not be empty"})
	}
	if p.Beneficiary == "" {
		errs.Add(ValidationError{Field: "beneficiary", Message: "must not be empty"})
	}
	if p.Start.IsZero() {
		errs.Add(ValidationError{Field: "start", Message: "must be set"})
	}

	errs.Add(wholeSeconds("cliff", p.Cliff))
	errs.Add(wholeSeconds("duration", p.Duration))
	errs.Add(wholeSeconds("slice_period", p.SlicePeriod))

	switch {
	case p.Duration <= 0:
		errs.Add(ValidationError{Field: "duration", Message: "must be positive"})
	case p.Cliff > p.Duration:
		errs.Add(ValidationError{Field: "cliff", Message: "must not exceed duration"})
	}

	switch {
	case p.SlicePeriod < time.Second:
		errs.Add(ValidationError{Field: "slice_period", Message: "must be at least one second"})
	case p.Duration > 0 && p.SlicePeriod > p.Duration:
		errs.Add(ValidationError{Field: "slice_period", Message: "must not exceed duration"})
	}

	if p.Amount.IsZero() {
		errs.Add(ValidationError{Field: "amount", Message: "must be positive"})
	}

	return errs.ErrOrNil()
}

func wholeSeconds(field string, d time.Duration) error {
	if d < 0 {
		return ValidationError{Field: field, Message: "must not be negative"}
	}
	if d%time.Second != 0 {
		return ValidationError{Field: field, Message: "must be a whole number of seconds"}
	}
	return nil
}

// CreateVestingSchedule funds and records a new schedule. Only the owner may
// call it. The full amount is pulled from the owner before the schedule is
// persisted; if persisting fails the funds are returned.
func (l *Ledger) CreateVestingSchedule(ctx context.Context, caller string, p CreateParams) (id.ScheduleID, error) {
	s, err := l.createVestingSchedule(ctx, caller, p)
	if err != nil {
		return id.Nil, err
	}

	l.logger.Info("vesting schedule created",
		"schedule_id", s.ID.String(),
		"beneficiary", s.Beneficiary,
		"token", s.Token,
		"amount", s.TotalAmount.String(),
		"start", s.Start,
		"cliff", s.Cliff,
		"duration", s.Duration,
		"slice_period", s.SlicePeriod,
	)
	l.plugins.EmitScheduleCreated(ctx, s)

	return s.ID, nil
}

func (l *Ledger) createVestingSchedule(ctx context.Context, caller string, p CreateParams) (*schedule.Schedule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, err := l.authorizeOwner(caller)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	decimals, err := l.custody.Decimals(ctx, p.Token)
	if err != nil {
		return nil, fmt.Errorf("vesting: read decimals of %s: %w", p.Token, err)
	}

	count, err := l.store.CountSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("vesting: count schedules: %w", err)
	}
	existing, err := l.store.ListScheduleIDsByBeneficiary(ctx, p.Beneficiary)
	if err != nil {
		return nil, fmt.Errorf("vesting: list beneficiary schedules: %w", err)
	}

	now := l.clock.Now()
	s := &schedule.Schedule{
		Entity:      types.NewEntityAt(now),
		ID:          id.NewScheduleID(),
		Seq:         count + 1,
		Index:       len(existing),
		Token:       p.Token,
		Beneficiary: p.Beneficiary,
		Decimals:    decimals,
		Start:       p.Start.UTC().Truncate(time.Second),
		Cliff:       p.Cliff,
		Duration:    p.Duration,
		SlicePeriod: p.SlicePeriod,
		TotalAmount: p.Amount,
		Released:    types.ZeroAmount(),
	}

	// Last point at which cancellation is honoured.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := l.custody.PullIn(ctx, p.Token, owner, p.Amount); err != nil {
		return nil, transferError("fund schedule", err)
	}

	if err := l.store.CreateSchedule(ctx, s); err != nil {
		l.refund(ctx, owner, s, err)
		return nil, fmt.Errorf("vesting: persist schedule: %w", err)
	}

	return s, nil
}

// refund returns the funds pulled for a schedule that could not be stored.
func (l *Ledger) refund(ctx context.Context, owner string, s *schedule.Schedule, cause error) {
	if err := l.custody.PushOut(context.WithoutCancel(ctx), s.Token, owner, s.TotalAmount); err != nil {
		l.logger.Error("refund after failed schedule insert did not complete",
			"schedule_id", s.ID.String(),
			"token", s.Token,
			"amount", s.TotalAmount.String(),
			"cause", cause,
			"error", err,
		)
		return
	}
	l.logger.Warn("schedule insert failed, funds returned to owner",
		"schedule_id", s.ID.String(),
		"token", s.Token,
		"amount", s.TotalAmount.String(),
		"error", cause,
	)
}

// ──────────────────────────────────────────────────
// Queries
//
// Queries share the ledger lock for reading, so they never observe a
// mutation that is still in flight and may yet be rolled back.
// ──────────────────────────────────────────────────

// VestingSchedulesCount returns the number of schedules ever created.
func (l *Ledger) VestingSchedulesCount(ctx context.Context) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.CountSchedules(ctx)
}

// GetVestingSchedule returns a schedule by id.
func (l *Ledger) GetVestingSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.GetSchedule(ctx, scheduleID)
}

// GetVestingSchedulesByBeneficiary returns the ids of beneficiary's schedules
// in creation order.
func (l *Ledger) GetVestingSchedulesByBeneficiary(ctx context.Context, beneficiary string) ([]id.ScheduleID, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListScheduleIDsByBeneficiary(ctx, beneficiary)
}

// GetVestingScheduleByBeneficiaryAndIndex returns beneficiary's index-th
// schedule, counting from zero in creation order.
func (l *Ledger) GetVestingScheduleByBeneficiaryAndIndex(ctx context.Context, beneficiary string, index int) (*schedule.Schedule, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids, err := l.store.ListScheduleIDsByBeneficiary(ctx, beneficiary)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ids) {
		return nil, fmt.Errorf("%w: %s has no schedule at index %d", ErrScheduleNotFound, beneficiary, index)
	}
	return l.store.GetSchedule(ctx, ids[index])
}

// GetLastVestingScheduleForBeneficiary returns beneficiary's most recent schedule.
func (l *Ledger) GetLastVestingScheduleForBeneficiary(ctx context.Context, beneficiary string) (*schedule.Schedule, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids, err := l.store.ListScheduleIDsByBeneficiary(ctx, beneficiary)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s has no schedules", ErrScheduleNotFound, beneficiary)
	}
	return l.store.GetSchedule(ctx, ids[len(ids)-1])
}

// ListVestingSchedules lists schedules in creation order.
func (l *Ledger) ListVestingSchedules(ctx context.Context, opts schedule.ListOpts) ([]*schedule.Schedule, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListSchedules(ctx, opts)
}

// ComputeVestedAmount returns how much of the schedule has vested now.
func (l *Ledger) ComputeVestedAmount(ctx context.Context, scheduleID id.ScheduleID) (types.Amount, error) {
	snap, err := l.Snapshot(ctx, scheduleID)
	if err != nil {
		return types.ZeroAmount(), err
	}
	return snap.Vested, nil
}

// ComputeReleasableAmount returns how much the beneficiary could release now.
func (l *Ledger) ComputeReleasableAmount(ctx context.Context, scheduleID id.ScheduleID) (types.Amount, error) {
	snap, err := l.Snapshot(ctx, scheduleID)
	if err != nil {
		return types.ZeroAmount(), err
	}
	return snap.Releasable, nil
}

// Snapshot returns the full accounting view of a schedule now. A schedule
// with more released than vested reports zero releasable and sets
// InvariantViolated.
func (l *Ledger) Snapshot(ctx context.Context, scheduleID id.ScheduleID) (release.Snapshot, error) {
	s, snap, err := l.snapshot(ctx, scheduleID)
	if err != nil {
		return release.Snapshot{}, err
	}
	if snap.InvariantViolated {
		l.reportViolation(ctx, s, snap.Vested)
	}
	return snap, nil
}

func (l *Ledger) snapshot(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, release.Snapshot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, err := l.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, release.Snapshot{}, err
	}
	return s, release.Compute(s, l.clock.Now()), nil
}

// reportViolation must be called without l.mu held.
func (l *Ledger) reportViolation(ctx context.Context, s *schedule.Schedule, vested types.Amount) {
	l.logger.Error("released exceeds vested amount",
		"schedule_id", s.ID.String(),
		"released", s.Released.String(),
		"vested", vested.String(),
	)
	l.plugins.EmitInvariantViolation(ctx, s, vested)
}

// listPageSize bounds each store read when scanning all schedules of a token.
const listPageSize = 500

// TotalCommitted returns the custodied amount of token still owed to
// beneficiaries: the sum of total minus released over its schedules.
func (l *Ledger) TotalCommitted(ctx context.Context, token string) (types.Amount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalCommitted(ctx, token)
}

func (l *Ledger) totalCommitted(ctx context.Context, token string) (types.Amount, error) {
	total := types.ZeroAmount()
	for offset := 0; ; offset += listPageSize {
		page, err := l.store.ListSchedules(ctx, schedule.ListOpts{
			Token:  token,
			Limit:  listPageSize,
			Offset: offset,
		})
		if err != nil {
			return types.ZeroAmount(), err
		}
		for _, s := range page {
			total = total.Add(s.Outstanding())
		}
		if len(page) < listPageSize {
			return total, nil
		}
	}
}

// WithdrawableAmount returns how much of token the ledger holds beyond its
// outstanding commitments, floored at zero.
func (l *Ledger) WithdrawableAmount(ctx context.Context, token string) (types.Amount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	committed, err := l.totalCommitted(ctx, token)
	if err != nil {
		return types.ZeroAmount(), err
	}
	held, err := l.custody.BalanceOf(ctx, token, l.custody.Holder())
	if err != nil {
		return types.ZeroAmount(), fmt.Errorf("vesting: read custody balance: %w", err)
	}
	free, _ := held.SubFloor(committed)
	return free, nil
}
