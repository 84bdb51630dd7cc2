// Package release computes how much of a vesting schedule has vested and how
// much is releasable at a given instant.
//
// Everything here is a pure function of the schedule and the supplied time.
// Time is truncated to whole unix seconds and vesting accrues in steps of
// the schedule's slice period:
//
//	now <  start + cliff     -> 0
//	now >= start + duration  -> total
//	otherwise                -> floor(total * floor(elapsed/slice)*slice / duration)
//
// Multiplication happens before division and at arbitrary precision, so the
// beneficiary never receives more than was linearly earned.
package release

import (
	"time"

	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Snapshot is the accounting view of a schedule at one instant.
type Snapshot struct {
	At         time.Time       `json:"at"`
	Vested     types.Amount    `json:"vested"`
	Released   types.Amount    `json:"released"`
	Releasable types.Amount    `json:"releasable"`
	Status     schedule.Status `json:"status"`

	// InvariantViolated is set when Released exceeds Vested. Releasable is
	// reported as zero in that case.
	InvariantViolated bool `json:"invariant_violated,omitempty"`
}

// Vested returns the cumulative amount vested at now.
func Vested(s *schedule.Schedule, now time.Time) types.Amount {
	start := s.Start.Unix()
	t := now.Unix()

	if t < start+seconds(s.Cliff) {
		return types.ZeroAmount()
	}

	duration := seconds(s.Duration)
	if t >= start+duration {
		return s.TotalAmount
	}

	// Reached only with start <= t < start+duration, so elapsed and
	// duration are both positive.
	elapsed := t - start
	slice := seconds(s.SlicePeriod)
	if slice < 1 {
		slice = 1
	}
	quantized := (elapsed / slice) * slice

	return s.TotalAmount.MulDiv(uint64(quantized), uint64(duration)) //nolint:gosec // both values are positive here
}

// Releasable returns Vested minus Released. The boolean is false when
// Released exceeds Vested; the amount is then zero.
func Releasable(s *schedule.Schedule, now time.Time) (types.Amount, bool) {
	return Vested(s, now).SubFloor(s.Released)
}

// Compute returns the full accounting snapshot at now.
func Compute(s *schedule.Schedule, now time.Time) Snapshot {
	vested := Vested(s, now)
	releasable, ok := vested.SubFloor(s.Released)

	return Snapshot{
		At:                now.UTC().Truncate(time.Second),
		Vested:            vested,
		Released:          s.Released,
		Releasable:        releasable,
		Status:            s.Status(),
		InvariantViolated: !ok,
	}
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
