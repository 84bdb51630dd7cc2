// Package schedule defines the vesting schedule record and its store contract.
package schedule

import (
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/types"
)

// Status is the payout state of a schedule. It is derived from Released
// and never stored.
type Status string

const (
	StatusCreated           Status = "created"
	StatusPartiallyReleased Status = "partially_released"
	StatusFullyReleased     Status = "fully_released"
)

// Schedule is a single vesting commitment of a fixed amount of one token to
// one beneficiary. All fields except Released and UpdatedAt are fixed at
// creation.
type Schedule struct {
	types.Entity
	ID          id.ScheduleID `json:"id"`
	Seq         int64         `json:"seq"`
	Index       int           `json:"index"`
	Token       string        `json:"token"`
	Beneficiary string        `json:"beneficiary"`
	Decimals    uint8         `json:"decimals"`
	Start       time.Time     `json:"start"`
	Cliff       time.Duration `json:"cliff"`
	Duration    time.Duration `json:"duration"`
	SlicePeriod time.Duration `json:"slice_period"`
	TotalAmount types.Amount  `json:"total_amount"`
	Released    types.Amount  `json:"released"`
}

// CliffEnd returns the instant before which nothing is releasable.
func (s *Schedule) CliffEnd() time.Time { return s.Start.Add(s.Cliff) }

// End returns the instant at which the schedule is fully vested.
func (s *Schedule) End() time.Time { return s.Start.Add(s.Duration) }

// Outstanding returns the committed amount not yet paid out.
func (s *Schedule) Outstanding() types.Amount {
	out, _ := s.TotalAmount.SubFloor(s.Released)
	return out
}

// Status derives the payout state from Released.
func (s *Schedule) Status() Status {
	switch {
	case s.Released.IsZero():
		return StatusCreated
	case s.Released.GTE(s.TotalAmount):
		return StatusFullyReleased
	default:
		return StatusPartiallyReleased
	}
}

// TotalTokenAmount returns TotalAmount with its token and display precision.
func (s *Schedule) TotalTokenAmount() types.TokenAmount {
	return types.TokenAmount{Token: s.Token, Amount: s.TotalAmount, Decimals: s.Decimals}
}

// Clone returns a copy that shares no mutable state with s.
func (s *Schedule) Clone() *Schedule {
	c := *s
	return &c
}

// ListOpts filters and paginates schedule listings. Results are always in
// creation order.
type ListOpts struct {
	Token       string
	Beneficiary string
	Limit       int
	Offset      int
}
