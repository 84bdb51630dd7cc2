package vesting

import (
	"context"
	"fmt"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/release"
	"github.com/xraph/vesting/types"
)

// Release pays amount of a schedule's vested tokens to its beneficiary.
// Only the beneficiary may call it, and amount must not exceed what is
// releasable now.
//
// Released is advanced before the payout. If the payout fails it is put
// back, so a failed release leaves no trace in the schedule.
func (l *Ledger) Release(ctx context.Context, caller string, scheduleID id.ScheduleID, amount types.Amount) error {
	emit, err := l.release(ctx, caller, scheduleID, amount)
	if emit != nil {
		emit()
	}
	return err
}

// release performs the release under l.mu. The returned func, when not nil,
// emits the outcome to plugins and must be called after the lock is released.
func (l *Ledger) release(ctx context.Context, caller string, scheduleID id.ScheduleID, amount types.Amount) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireStarted(); err != nil {
		return nil, err
	}

	s, err := l.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if caller == "" || caller != s.Beneficiary {
		return nil, fmt.Errorf("%w: %q is not the beneficiary of %s", ErrUnauthorized, caller, scheduleID)
	}
	if amount.IsZero() {
		return nil, ValidationError{Field: "amount", Message: "must be positive"}
	}

	now := l.clock.Now()
	releasable, ok := release.Releasable(s, now)
	if !ok {
		vested := release.Vested(s, now)
		return func() { l.reportViolation(ctx, s, vested) },
			fmt.Errorf("%w: %w", ErrInsufficientVestedAmount, ErrInvariantViolation)
	}
	if amount.GT(releasable) {
		return nil, fmt.Errorf("%w: requested %s, releasable %s", ErrInsufficientVestedAmount, amount, releasable)
	}

	// Last point at which cancellation is honoured.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from, prevUpdated := s.Released, s.UpdatedAt
	to := from.Add(amount)
	if err := l.store.UpdateReleased(ctx, s.ID, from, to, now); err != nil {
		return nil, fmt.Errorf("vesting: record release: %w", err)
	}

	if err := l.custody.PushOut(ctx, s.Token, s.Beneficiary, amount); err != nil {
		if rerr := l.store.UpdateReleased(context.WithoutCancel(ctx), s.ID, to, from, prevUpdated); rerr != nil {
			l.logger.Error("could not restore released amount after failed payout",
				"schedule_id", s.ID.String(),
				"released", to.String(),
				"expected", from.String(),
				"error", rerr,
			)
		}
		l.logger.Warn("release payout failed",
			"schedule_id", s.ID.String(),
			"token", s.Token,
			"amount", amount.String(),
			"error", err,
		)
		return func() { l.plugins.EmitReleaseFailed(ctx, s, amount, err) }, transferError("release", err)
	}

	s.Released = to
	s.Touch(now)

	l.logger.Info("tokens released",
		"schedule_id", s.ID.String(),
		"beneficiary", s.Beneficiary,
		"token", s.Token,
		"amount", amount.String(),
		"released", to.String(),
		"status", string(s.Status()),
	)

	return func() { l.plugins.EmitTokensReleased(ctx, s, amount) }, nil
}

// EmergencyWithdraw moves amount of token from custody to the owner. It does
// not consult or modify any schedule, so it can leave commitments
// underfunded. WithdrawableAmount reports what can be taken without doing so.
func (l *Ledger) EmergencyWithdraw(ctx context.Context, caller, token string, amount types.Amount) error {
	owner, err := l.emergencyWithdraw(ctx, caller, token, amount)
	if err != nil {
		return err
	}

	l.logger.Warn("emergency withdraw",
		"owner", owner,
		"token", token,
		"amount", amount.String(),
	)
	l.plugins.EmitEmergencyWithdraw(ctx, owner, token, amount)

	return nil
}

func (l *Ledger) emergencyWithdraw(ctx context.Context, caller, token string, amount types.Amount) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, err := l.authorizeOwner(caller)
	if err != nil {
		return "", err
	}

	var errs MultiError
	if token == "" {
		errs.Add(ValidationError{Field: "token", Message: "must not be empty"})
	}
	if amount.IsZero() {
		errs.Add(ValidationError{Field: "amount", Message: "must be positive"})
	}
	if err := errs.ErrOrNil(); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := l.custody.PushOut(ctx, token, owner, amount); err != nil {
		return "", transferError("emergency withdraw", err)
	}
	return owner, nil
}
