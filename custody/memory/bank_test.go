package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/custody/memory"
	"github.com/xraph/vesting/types"
)

func TestBankPullAndPush(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	b.Mint("tst", "owner", types.NewAmount(1000))

	require.NoError(t, b.PullIn(ctx, "tst", "owner", types.NewAmount(600)))

	bal, err := b.BalanceOf(ctx, "tst", b.Holder())
	require.NoError(t, err)
	assert.Equal(t, "600", bal.String())

	bal, err = b.BalanceOf(ctx, "tst", "owner")
	require.NoError(t, err)
	assert.Equal(t, "400", bal.String())

	require.NoError(t, b.PushOut(ctx, "tst", "alice", types.NewAmount(250)))

	bal, err = b.BalanceOf(ctx, "tst", "alice")
	require.NoError(t, err)
	assert.Equal(t, "250", bal.String())

	bal, err = b.BalanceOf(ctx, "tst", b.Holder())
	require.NoError(t, err)
	assert.Equal(t, "350", bal.String())
}

func TestBankInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	b.Mint("tst", "owner", types.NewAmount(10))

	err := b.PullIn(ctx, "tst", "owner", types.NewAmount(11))
	require.ErrorIs(t, err, vesting.ErrInsufficientFunds)

	err = b.PushOut(ctx, "tst", "alice", types.NewAmount(1))
	require.ErrorIs(t, err, vesting.ErrInsufficientFunds)

	bal, err := b.BalanceOf(ctx, "tst", "owner")
	require.NoError(t, err)
	assert.Equal(t, "10", bal.String(), "failed pull must not move funds")
}

func TestBankUnknownAccountsHoldZero(t *testing.T) {
	b := memory.New()

	bal, err := b.BalanceOf(context.Background(), "nope", "nobody")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestBankFailNext(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	b.Mint("tst", b.Holder(), types.NewAmount(100))

	boom := errors.New("boom")
	b.FailNext(memory.OpPushOut, boom)
	b.FailNext(memory.OpPushOut, nil)

	require.ErrorIs(t, b.PushOut(ctx, "tst", "alice", types.NewAmount(1)), boom)
	require.ErrorIs(t, b.PushOut(ctx, "tst", "alice", types.NewAmount(1)), vesting.ErrTransferFailed)
	require.NoError(t, b.PushOut(ctx, "tst", "alice", types.NewAmount(1)))

	bal, err := b.BalanceOf(ctx, "tst", "alice")
	require.NoError(t, err)
	assert.Equal(t, "1", bal.String())

	// Pull failures are queued separately.
	require.NoError(t, b.PullIn(ctx, "tst", "alice", types.NewAmount(1)))
}

func TestBankDecimals(t *testing.T) {
	ctx := context.Background()
	b := memory.New(memory.WithHolder("escrow"))
	b.SetDecimals("usdt", 6)

	d, err := b.Decimals(ctx, "usdt")
	require.NoError(t, err)
	assert.Equal(t, uint8(6), d)

	d, err = b.Decimals(ctx, "eth")
	require.NoError(t, err)
	assert.Equal(t, memory.DefaultDecimals, d)
	assert.Equal(t, "escrow", b.Holder())
}

func TestBankTransfer(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	b.Mint("tst", "a", types.NewAmount(5))

	require.NoError(t, b.Transfer(ctx, "tst", "a", "b", types.NewAmount(5)))
	require.ErrorIs(t, b.Transfer(ctx, "tst", "a", "b", types.NewAmount(1)), vesting.ErrInsufficientFunds)
	require.ErrorIs(t, b.Transfer(ctx, "", "a", "b", types.ZeroAmount()), vesting.ErrTransferFailed)
}
