package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

func TestScheduleModelRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := &schedule.Schedule{
		Entity:      types.NewEntityAt(created),
		ID:          id.NewScheduleID(),
		Seq:         7,
		Index:       2,
		Token:       "usdt",
		Beneficiary: "alice",
		Decimals:    18,
		Start:       created.Add(time.Hour),
		Cliff:       30 * 24 * time.Hour,
		Duration:    365 * 24 * time.Hour,
		SlicePeriod: 24 * time.Hour,
		TotalAmount: types.MustParseAmount("1000000000000000000000000000000"),
		Released:    types.NewAmount(42),
	}

	m := toScheduleModel(in)
	assert.Equal(t, int64(30*24*3600), m.CliffSecs)
	assert.Equal(t, "1000000000000000000000000000000", m.TotalAmount)

	out, err := fromScheduleModel(m)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Seq, out.Seq)
	assert.Equal(t, in.Index, out.Index)
	assert.Equal(t, in.Decimals, out.Decimals)
	assert.True(t, in.Start.Equal(out.Start))
	assert.Equal(t, in.Cliff, out.Cliff)
	assert.Equal(t, in.Duration, out.Duration)
	assert.Equal(t, in.SlicePeriod, out.SlicePeriod)
	assert.Equal(t, in.TotalAmount.String(), out.TotalAmount.String())
	assert.Equal(t, "42", out.Released.String())
}

func TestScheduleModelRejectsCorruptRows(t *testing.T) {
	m := toScheduleModel(&schedule.Schedule{
		ID:          id.NewScheduleID(),
		TotalAmount: types.NewAmount(1),
		Released:    types.ZeroAmount(),
	})

	bad := *m
	bad.ID = id.NewReleaseID().String()
	_, err := fromScheduleModel(&bad)
	assert.Error(t, err)

	bad = *m
	bad.Released = "-5"
	_, err = fromScheduleModel(&bad)
	assert.Error(t, err)
}
