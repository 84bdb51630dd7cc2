package vesting_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/custody/memory"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/store"
	storemem "github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/types"
)

const (
	owner       = "owner"
	beneficiary = "beneficiary"
	stranger    = "addr1"
	token       = "tst"
)

var start = time.Unix(1_700_000_000, 0).UTC()

// manualClock is a settable time source.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	ledger *vesting.Ledger
	store  *storemem.Store
	bank   *memory.Bank
	clock  *manualClock
}

func newFixture(t *testing.T, opts ...vesting.Option) *fixture {
	t.Helper()
	return newFixtureWithStore(t, nil, opts...)
}

func newFixtureWithStore(t *testing.T, wrap func(*storemem.Store) store.Store, opts ...vesting.Option) *fixture {
	t.Helper()

	f := &fixture{
		store: storemem.New(),
		bank:  memory.New(),
		clock: &manualClock{now: start},
	}
	f.bank.SetDecimals(token, 6)
	f.bank.Mint(token, owner, types.NewAmount(1_000_000))

	var s store.Store = f.store
	if wrap != nil {
		s = wrap(f.store)
	}

	all := append([]vesting.Option{
		vesting.WithOwner(owner),
		vesting.WithClock(f.clock),
	}, opts...)

	f.ledger = vesting.New(s, f.bank, all...)
	require.NoError(t, f.ledger.Start(context.Background()))
	t.Cleanup(func() { _ = f.ledger.Stop() })
	return f
}

func defaultParams() vesting.CreateParams {
	return vesting.CreateParams{
		Token:       token,
		Beneficiary: beneficiary,
		Start:       start,
		Cliff:       60 * time.Second,
		Duration:    180 * time.Second,
		SlicePeriod: time.Second,
		Amount:      types.NewAmount(1000),
	}
}

func (f *fixture) create(t *testing.T, p vesting.CreateParams) id.ScheduleID {
	t.Helper()
	sid, err := f.ledger.CreateVestingSchedule(context.Background(), owner, p)
	require.NoError(t, err)
	return sid
}

func (f *fixture) balance(t *testing.T, account string) string {
	t.Helper()
	b, err := f.bank.BalanceOf(context.Background(), token, account)
	require.NoError(t, err)
	return b.String()
}

func TestStartSeedsOwner(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, owner, f.ledger.Owner())

	n, err := f.ledger.VestingSchedulesCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartRequiresOwner(t *testing.T) {
	l := vesting.New(storemem.New(), memory.New())

	err := l.Start(context.Background())
	require.ErrorIs(t, err, vesting.ErrInvalidParameters)
}

func TestStartKeepsPersistedOwner(t *testing.T) {
	ctx := context.Background()
	s := storemem.New()
	require.NoError(t, s.SetOwner(ctx, "persisted"))

	l := vesting.New(s, memory.New(), vesting.WithOwner("configured"))
	require.NoError(t, l.Start(ctx))
	assert.Equal(t, "persisted", l.Owner())
}

func TestMutationsRequireStart(t *testing.T) {
	ctx := context.Background()
	l := vesting.New(storemem.New(), memory.New(), vesting.WithOwner(owner))

	_, err := l.CreateVestingSchedule(ctx, owner, defaultParams())
	require.ErrorIs(t, err, vesting.ErrNotStarted)

	err = l.Release(ctx, beneficiary, id.NewScheduleID(), types.NewAmount(1))
	require.ErrorIs(t, err, vesting.ErrNotStarted)
}

func TestCreateVestingSchedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sid := f.create(t, defaultParams())

	n, err := f.ledger.VestingSchedulesCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ids, err := f.ledger.GetVestingSchedulesByBeneficiary(ctx, beneficiary)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, sid, ids[0])

	// Reading back returns exactly what was created with nothing released.
	s, err := f.ledger.GetVestingSchedule(ctx, sid)
	require.NoError(t, err)
	p := defaultParams()
	assert.Equal(t, p.Token, s.Token)
	assert.Equal(t, p.Beneficiary, s.Beneficiary)
	assert.True(t, p.Start.Equal(s.Start))
	assert.Equal(t, p.Cliff, s.Cliff)
	assert.Equal(t, p.Duration, s.Duration)
	assert.Equal(t, p.SlicePeriod, s.SlicePeriod)
	assert.Equal(t, "1000", s.TotalAmount.String())
	assert.True(t, s.Released.IsZero())
	assert.Equal(t, uint8(6), s.Decimals)
	assert.Equal(t, int64(1), s.Seq)
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, schedule.StatusCreated, s.Status())
	assert.Equal(t, id.PrefixSchedule, s.ID.Prefix())

	// Funds moved into custody.
	assert.Equal(t, "999000", f.balance(t, owner))
	assert.Equal(t, "1000", f.balance(t, f.bank.Holder()))
}

func TestCreateVestingScheduleValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*vesting.CreateParams)
		field  string
	}{
		{"zero duration", func(p *vesting.CreateParams) { p.Duration = 0; p.Cliff = 0; p.SlicePeriod = time.Second }, "duration"},
		{"zero slice", func(p *vesting.CreateParams) { p.SlicePeriod = 0 }, "slice_period"},
		{"slice beyond duration", func(p *vesting.CreateParams) { p.SlicePeriod = 181 * time.Second }, "slice_period"},
		{"cliff beyond duration", func(p *vesting.CreateParams) { p.Cliff = 181 * time.Second }, "cliff"},
		{"zero amount", func(p *vesting.CreateParams) { p.Amount = types.ZeroAmount() }, "amount"},
		{"unset amount", func(p *vesting.CreateParams) { p.Amount = types.Amount{} }, "amount"},
		{"empty token", func(p *vesting.CreateParams) { p.Token = "" }, "token"},
		{"empty beneficiary", func(p *vesting.CreateParams) { p.Beneficiary = "" }, "beneficiary"},
		{"zero start", func(p *vesting.CreateParams) { p.Start = time.Time{} }, "start"},
		{"sub-second duration", func(p *vesting.CreateParams) { p.Duration = 180*time.Second + time.Millisecond }, "duration"},
		{"negative cliff", func(p *vesting.CreateParams) { p.Cliff = -time.Second }, "cliff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := defaultParams()
			tt.mutate(&p)

			_, err := f.ledger.CreateVestingSchedule(context.Background(), owner, p)
			require.ErrorIs(t, err, vesting.ErrInvalidParameters)

			var verr vesting.ValidationError
			require.ErrorAs(t, err, &verr)

			var fields []string
			var multi vesting.MultiError
			if errors.As(err, &multi) {
				for _, e := range multi.Errors {
					var v vesting.ValidationError
					if errors.As(e, &v) {
						fields = append(fields, v.Field)
					}
				}
			} else {
				fields = append(fields, verr.Field)
			}
			assert.Contains(t, fields, tt.field)

			// Nothing moved, nothing recorded.
			assert.Equal(t, "1000000", f.balance(t, owner))
			n, err := f.ledger.VestingSchedulesCount(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestCreateVestingScheduleInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	p := defaultParams()
	p.Amount = types.NewAmount(1_000_001)

	_, err := f.ledger.CreateVestingSchedule(context.Background(), owner, p)
	require.ErrorIs(t, err, vesting.ErrInsufficientFunds)

	n, err := f.ledger.VestingSchedulesCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateVestingSchedulePullFailure(t *testing.T) {
	f := newFixture(t)
	f.bank.FailNext(memory.OpPullIn, errors.New("rpc down"))

	_, err := f.ledger.CreateVestingSchedule(context.Background(), owner, defaultParams())
	require.ErrorIs(t, err, vesting.ErrTransferFailed)

	n, err := f.ledger.VestingSchedulesCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "1000000", f.balance(t, owner))
}

// Scenario A: nothing is releasable before the cliff.
func TestReleaseBeforeCliff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.create(t, defaultParams())

	f.clock.Set(start.Add(59 * time.Second))

	releasable, err := f.ledger.ComputeReleasableAmount(ctx, sid)
	require.NoError(t, err)
	assert.True(t, releasable.IsZero())

	err = f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(1))
	require.ErrorIs(t, err, vesting.ErrInsufficientVestedAmount)
	assert.Contains(t, err.Error(), "not enough vested tokens")
}

// Scenario B: everything is releasable after the end.
func TestReleaseAfterEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.create(t, defaultParams())

	f.clock.Set(start.Add(190 * time.Second))

	releasable, err := f.ledger.ComputeReleasableAmount(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "1000", releasable.String())

	require.NoError(t, f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(1000)))

	s, err := f.ledger.GetVestingSchedule(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "1000", s.Released.String())
	assert.Equal(t, schedule.StatusFullyReleased, s.Status())

	releasable, err = f.ledger.ComputeReleasableAmount(ctx, sid)
	require.NoError(t, err)
	assert.True(t, releasable.IsZero())

	assert.Equal(t, "1000", f.balance(t, beneficiary))
	assert.Equal(t, "0", f.balance(t, f.bank.Holder()))

	err = f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(1))
	require.ErrorIs(t, err, vesting.ErrInsufficientVestedAmount)
}

func TestPartialReleaseAfterCliff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.create(t, defaultParams())

	f.clock.Set(start.Add(70 * time.Second))

	releasable, err := f.ledger.ComputeReleasableAmount(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "388", releasable.String())

	require.NoError(t, f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(100)))

	snap, err := f.ledger.Snapshot(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "388", snap.Vested.String())
	assert.Equal(t, "100", snap.Released.String())
	assert.Equal(t, "288", snap.Releasable.String())
	assert.Equal(t, schedule.StatusPartiallyReleased, snap.Status)

	vested, err := f.ledger.ComputeVestedAmount(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "388", vested.String())

	err = f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(289))
	require.ErrorIs(t, err, vesting.ErrInsufficientVestedAmount)
	require.NoError(t, f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(288)))
}

func TestReleaseAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.create(t, defaultParams())
	f.clock.Set(start.Add(190 * time.Second))

	for _, caller := range []string{owner, stranger, ""} {
		err := f.ledger.Release(ctx, caller, sid, types.NewAmount(1))
		require.ErrorIs(t, err, vesting.ErrUnauthorized, "caller %q", caller)
		assert.True(t, vesting.IsAuthError(err))
	}
}

func TestReleaseErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.create(t, defaultParams())
	f.clock.Set(start.Add(190 * time.Second))

	err := f.ledger.Release(ctx, beneficiary, id.NewScheduleID(), types.NewAmount(1))
	require.ErrorIs(t, err, vesting.ErrScheduleNotFound)
	assert.True(t, vesting.IsNotFound(err))

	err = f.ledger.Release(ctx, beneficiary, sid, types.ZeroAmount())
	require.ErrorIs(t, err, vesting.ErrInvalidParameters)
}

func TestReleaseRollsBackOnPayoutFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.create(t, defaultParams())
	f.clock.Set(start.Add(190 * time.Second))

	f.bank.FailNext(memory.OpPushOut, errors.New("rpc down"))

	err := f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(500))
	require.ErrorIs(t, err, vesting.ErrTransferFailed)
	assert.True(t, vesting.IsRetryable(err))

	s, err := f.ledger.GetVestingSchedule(ctx, sid)
	require.NoError(t, err)
	assert.True(t, s.Released.IsZero(), "released must be restored")
	assert.True(t, s.UpdatedAt.Equal(start), "updated_at must be restored, got %s", s.UpdatedAt)
	assert.Equal(t, "1000", f.balance(t, f.bank.Holder()))
	assert.Equal(t, "0", f.balance(t, beneficiary))

	// The next attempt goes through.
	require.NoError(t, f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(500)))
	assert.Equal(t, "500", f.balance(t, beneficiary))
}

func TestReleaseStampsLedgerClock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.create(t, defaultParams())

	s, err := f.ledger.GetVestingSchedule(ctx, sid)
	require.NoError(t, err)
	assert.True(t, s.UpdatedAt.Equal(start))

	releasedAt := start.Add(150 * time.Second)
	f.clock.Set(releasedAt)
	require.NoError(t, f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(100)))

	s, err = f.ledger.GetVestingSchedule(ctx, sid)
	require.NoError(t, err)
	assert.True(t, s.UpdatedAt.Equal(releasedAt), "updated_at %s, want %s", s.UpdatedAt, releasedAt)
	assert.True(t, s.CreatedAt.Equal(start))
}

func TestReleaseHonoursCancellation(t *testing.T) {
	f := newFixture(t)
	sid := f.create(t, defaultParams())
	f.clock.Set(start.Add(190 * time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(1))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "0", f.balance(t, beneficiary))
}

// Scenario C: non-owners are rejected regardless of parameter validity.
func TestOwnerOnlyOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.CreateVestingSchedule(ctx, stranger, defaultParams())
	require.ErrorIs(t, err, vesting.ErrUnauthorized)

	_, err = f.ledger.CreateVestingSchedule(ctx, stranger, vesting.CreateParams{})
	require.ErrorIs(t, err, vesting.ErrUnauthorized)

	err = f.ledger.EmergencyWithdraw(ctx, stranger, token, types.NewAmount(1))
	require.ErrorIs(t, err, vesting.ErrUnauthorized)

	err = f.ledger.EmergencyWithdraw(ctx, stranger, "", types.ZeroAmount())
	require.ErrorIs(t, err, vesting.ErrUnauthorized)

	err = f.ledger.TransferOwnership(ctx, stranger, stranger)
	require.ErrorIs(t, err, vesting.ErrUnauthorized)
	assert.Equal(t, owner, f.ledger.Owner())
}

// Scenario D: emergency withdraw never touches schedules.
func TestEmergencyWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.create(t, defaultParams())

	// Stray funds sent directly to custody.
	require.NoError(t, f.bank.Transfer(ctx, token, owner, f.bank.Holder(), types.NewAmount(100)))

	withdrawable, err := f.ledger.WithdrawableAmount(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "100", withdrawable.String())

	before, err := f.ledger.GetVestingSchedule(ctx, sid)
	require.NoError(t, err)

	require.NoError(t, f.ledger.EmergencyWithdraw(ctx, owner, token, types.NewAmount(100)))
	assert.Equal(t, "999000", f.balance(t, owner))

	after, err := f.ledger.GetVestingSchedule(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, before.Released.String(), after.Released.String())
	assert.Equal(t, before.TotalAmount.String(), after.TotalAmount.String())

	// Withdrawing committed funds is allowed and leaves schedules as they were.
	require.NoError(t, f.ledger.EmergencyWithdraw(ctx, owner, token, types.NewAmount(400)))
	committed, err := f.ledger.TotalCommitted(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "1000", committed.String())

	withdrawable, err = f.ledger.WithdrawableAmount(ctx, token)
	require.NoError(t, err)
	assert.True(t, withdrawable.IsZero())

	err = f.ledger.EmergencyWithdraw(ctx, owner, token, types.NewAmount(601))
	require.ErrorIs(t, err, vesting.ErrInsufficientFunds)

	err = f.ledger.EmergencyWithdraw(ctx, owner, token, types.ZeroAmount())
	require.ErrorIs(t, err, vesting.ErrInvalidParameters)
}

// Scenario E: several schedules for one beneficiary vest independently.
func TestMultipleSchedulesPerBeneficiary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.create(t, defaultParams())

	p := defaultParams()
	p.Start = start.Add(100 * time.Second)
	p.Cliff = 0
	p.Duration = 100 * time.Second
	p.SlicePeriod = 10 * time.Second
	p.Amount = types.NewAmount(50)
	second := f.create(t, p)

	other := defaultParams()
	other.Beneficiary = stranger
	f.create(t, other)

	ids, err := f.ledger.GetVestingSchedulesByBeneficiary(ctx, beneficiary)
	require.NoError(t, err)
	assert.Equal(t, []id.ScheduleID{first, second}, ids)

	byIndex, err := f.ledger.GetVestingScheduleByBeneficiaryAndIndex(ctx, beneficiary, 1)
	require.NoError(t, err)
	assert.Equal(t, second, byIndex.ID)
	assert.Equal(t, 1, byIndex.Index)
	assert.Equal(t, int64(2), byIndex.Seq)

	last, err := f.ledger.GetLastVestingScheduleForBeneficiary(ctx, beneficiary)
	require.NoError(t, err)
	assert.Equal(t, second, last.ID)

	_, err = f.ledger.GetVestingScheduleByBeneficiaryAndIndex(ctx, beneficiary, 2)
	require.ErrorIs(t, err, vesting.ErrScheduleNotFound)
	_, err = f.ledger.GetLastVestingScheduleForBeneficiary(ctx, "nobody")
	require.ErrorIs(t, err, vesting.ErrScheduleNotFound)

	f.clock.Set(start.Add(125 * time.Second))

	r1, err := f.ledger.ComputeReleasableAmount(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "694", r1.String()) // 1000 * 125 / 180

	r2, err := f.ledger.ComputeReleasableAmount(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "10", r2.String()) // 50 * 20 / 100

	require.NoError(t, f.ledger.Release(ctx, beneficiary, second, r2))
	r1again, err := f.ledger.ComputeReleasableAmount(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, r1.String(), r1again.String())

	list, err := f.ledger.ListVestingSchedules(ctx, schedule.ListOpts{Beneficiary: beneficiary})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	committed, err := f.ledger.TotalCommitted(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "2040", committed.String())
}

func TestTransferOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.ledger.TransferOwnership(ctx, owner, "")
	require.ErrorIs(t, err, vesting.ErrInvalidParameters)

	require.NoError(t, f.ledger.TransferOwnership(ctx, owner, stranger))
	assert.Equal(t, stranger, f.ledger.Owner())

	persisted, err := f.store.GetOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, stranger, persisted)

	// The previous owner lost its rights.
	_, err = f.ledger.CreateVestingSchedule(ctx, owner, defaultParams())
	require.ErrorIs(t, err, vesting.ErrUnauthorized)

	// The new owner funds schedules from its own balance.
	require.NoError(t, f.bank.Transfer(ctx, token, owner, stranger, types.NewAmount(1000)))
	_, err = f.ledger.CreateVestingSchedule(ctx, stranger, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, "0", f.balance(t, stranger))
}

// failingStore fails schedule inserts.
type failingStore struct {
	*storemem.Store
}

func (failingStore) CreateSchedule(context.Context, *schedule.Schedule) error {
	return errors.New("disk full")
}

func TestCreateRefundsWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	f := newFixtureWithStore(t, func(s *storemem.Store) store.Store { return failingStore{s} })

	_, err := f.ledger.CreateVestingSchedule(ctx, owner, defaultParams())
	require.Error(t, err)

	assert.Equal(t, "1000000", f.balance(t, owner))
	assert.Equal(t, "0", f.balance(t, f.bank.Holder()))
}

// brokenSchemaStore fails migrations.
type brokenSchemaStore struct {
	*storemem.Store
}

func (brokenSchemaStore) Migrate(context.Context) error {
	return errors.New("permission denied")
}

func TestStartMigration(t *testing.T) {
	ctx := context.Background()
	s := brokenSchemaStore{storemem.New()}

	l := vesting.New(s, memory.New(), vesting.WithOwner(owner))
	err := l.Start(ctx)
	require.ErrorIs(t, err, vesting.ErrMigrationFailed)

	l = vesting.New(s, memory.New(), vesting.WithOwner(owner), vesting.WithoutMigrate())
	require.NoError(t, l.Start(ctx))
	assert.Equal(t, owner, l.Owner())
}

func TestConcurrentReleasesNeverOverpay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.create(t, defaultParams())
	f.clock.Set(start.Add(190 * time.Second))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.ledger.Release(ctx, beneficiary, sid, types.NewAmount(100)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, "1000", f.balance(t, beneficiary))

	s, err := f.ledger.GetVestingSchedule(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "1000", s.Released.String())
}

func TestReleasedNeverExceedsTotalOverTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := defaultParams()
	p.SlicePeriod = 7 * time.Second
	sid := f.create(t, p)

	for sec := 0; sec <= 200; sec += 3 {
		f.clock.Set(start.Add(time.Duration(sec) * time.Second))

		r, err := f.ledger.ComputeReleasableAmount(ctx, sid)
		require.NoError(t, err)
		if r.IsPositive() {
			require.NoError(t, f.ledger.Release(ctx, beneficiary, sid, r))
		}

		s, err := f.ledger.GetVestingSchedule(ctx, sid)
		require.NoError(t, err)
		require.True(t, s.Released.LTE(s.TotalAmount))
	}

	assert.Equal(t, "1000", f.balance(t, beneficiary))
}
