package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// ==================== Schedule models ====================

// Amounts are stored as base-10 TEXT so values above 2^63 round-trip
// exactly. Durations are whole seconds.
type scheduleModel struct {
	grove.BaseModel `grove:"table:vesting_schedules"`

	ID           string    `grove:"id,pk"`
	Seq          int64     `grove:"seq"`
	BenefIndex   int       `grove:"beneficiary_index"`
	Token        string    `grove:"token"`
	Beneficiary  string    `grove:"beneficiary"`
	Decimals     int16     `grove:"decimals"`
	StartAt      time.Time `grove:"start_at"`
	CliffSecs    int64     `grove:"cliff_seconds"`
	DurationSecs int64     `grove:"duration_seconds"`
	SliceSecs    int64     `grove:"slice_seconds"`
	TotalAmount  string    `grove:"total_amount"`
	Released     string    `grove:"released"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toScheduleModel(s *schedule.Schedule) *scheduleModel {
	return &scheduleModel{
		ID:           s.ID.String(),
		Seq:          s.Seq,
		BenefIndex:   s.Index,
		Token:        s.Token,
		Beneficiary:  s.Beneficiary,
		Decimals:     int16(s.Decimals),
		StartAt:      s.Start.UTC(),
		CliffSecs:    int64(s.Cliff / time.Second),
		DurationSecs: int64(s.Duration / time.Second),
		SliceSecs:    int64(s.SlicePeriod / time.Second),
		TotalAmount:  s.TotalAmount.String(),
		Released:     s.Released.String(),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func fromScheduleModel(m *scheduleModel) (*schedule.Schedule, error) {
	scheduleID, err := id.ParseScheduleID(m.ID)
	if err != nil {
		return nil, err
	}
	total, err := types.ParseAmount(m.TotalAmount)
	if err != nil {
		return nil, err
	}
	released, err := types.ParseAmount(m.Released)
	if err != nil {
		return nil, err
	}

	return &schedule.Schedule{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          scheduleID,
		Seq:         m.Seq,
		Index:       m.BenefIndex,
		Token:       m.Token,
		Beneficiary: m.Beneficiary,
		Decimals:    uint8(m.Decimals), //nolint:gosec // written from a uint8
		Start:       m.StartAt.UTC(),
		Cliff:       time.Duration(m.CliffSecs) * time.Second,
		Duration:    time.Duration(m.DurationSecs) * time.Second,
		SlicePeriod: time.Duration(m.SliceSecs) * time.Second,
		TotalAmount: total,
		Released:    released,
	}, nil
}

// ==================== State models ====================

// stateModel is a key/value row for ledger-wide settings such as the owner.
type stateModel struct {
	grove.BaseModel `grove:"table:vesting_state"`

	Key       string    `grove:"key,pk"`
	Value     string    `grove:"value"`
	UpdatedAt time.Time `grove:"updated_at"`
}

const stateKeyOwner = "owner"
