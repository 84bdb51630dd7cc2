// Package memory is an in-process store.Store backed by maps. It is safe for
// concurrent use and keeps nothing across restarts.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/types"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Schedule storage, ordered by creation
	schedules map[string]*schedule.Schedule
	order     []string
	seqs      map[int64]struct{}

	// Beneficiary index: beneficiary -> schedule ids in creation order
	byBeneficiary map[string][]id.ScheduleID

	owner  string
	closed bool
}

func New() *Store {
	return &Store{
		schedules:     make(map[string]*schedule.Schedule),
		order:         make([]string, 0),
		seqs:          make(map[int64]struct{}),
		byBeneficiary: make(map[string][]id.ScheduleID),
	}
}

// Schedule Store implementation
func (s *Store) CreateSchedule(_ context.Context, sch *schedule.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return vesting.ErrStoreClosed
	}

	key := sch.ID.String()
	if _, exists := s.schedules[key]; exists {
		return vesting.ErrAlreadyExists
	}
	if _, exists := s.seqs[sch.Seq]; exists {
		return fmt.Errorf("%w: seq %d", vesting.ErrAlreadyExists, sch.Seq)
	}

	s.schedules[key] = sch.Clone()
	s.order = append(s.order, key)
	s.seqs[sch.Seq] = struct{}{}
	s.byBeneficiary[sch.Beneficiary] = append(s.byBeneficiary[sch.Beneficiary], sch.ID)
	return nil
}

func (s *Store) GetSchedule(_ context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sch, ok := s.schedules[scheduleID.String()]; ok {
		return sch.Clone(), nil
	}
	return nil, vesting.ErrScheduleNotFound
}

func (s *Store) ListScheduleIDsByBeneficiary(_ context.Context, beneficiary string) ([]id.ScheduleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byBeneficiary[beneficiary]
	result := make([]id.ScheduleID, len(ids))
	copy(result, ids)
	return result, nil
}

func (s *Store) ListSchedules(_ context.Context, opts schedule.ListOpts) ([]*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*schedule.Schedule
	skipped := 0
	for _, key := range s.order {
		sch := s.schedules[key]
		if opts.Token != "" && sch.Token != opts.Token {
			continue
		}
		if opts.Beneficiary != "" && sch.Beneficiary != opts.Beneficiary {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		result = append(result, sch.Clone())
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result, nil
}

func (s *Store) CountSchedules(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.order)), nil
}

func (s *Store) UpdateReleased(_ context.Context, scheduleID id.ScheduleID, from, to types.Amount, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return vesting.ErrStoreClosed
	}

	sch, ok := s.schedules[scheduleID.String()]
	if !ok {
		return vesting.ErrScheduleNotFound
	}
	if !sch.Released.Equal(from) {
		return fmt.Errorf("%w: released is %s, expected %s", vesting.ErrConflict, sch.Released, from)
	}
	if to.GT(sch.TotalAmount) {
		return fmt.Errorf("%w: released %s would exceed total %s", vesting.ErrInvalidParameters, to, sch.TotalAmount)
	}

	sch.Released = to
	sch.UpdatedAt = at
	return nil
}

// Ownership
func (s *Store) GetOwner(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.owner == "" {
		return "", vesting.ErrNotFound
	}
	return s.owner, nil
}

func (s *Store) SetOwner(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return vesting.ErrStoreClosed
	}
	s.owner = owner
	return nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = false
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return vesting.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
