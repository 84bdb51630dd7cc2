// Package custody defines how the ledger moves token value in and out of
// its own account.
//
// The ledger never holds balances itself. It asks an Adapter to pull a
// schedule's total from the owner when the schedule is created, and to push
// released or withdrawn amounts back out. Every call is treated as fallible
// and its error is checked before any bookkeeping is committed.
package custody

import (
	"context"

	"github.com/xraph/vesting/types"
)

// Adapter is the token transfer surface the ledger custodies value through.
type Adapter interface {
	// Holder returns the account identifier the ledger's custodied balance
	// lives under.
	Holder() string

	// PullIn moves amount of token from the given account into Holder.
	PullIn(ctx context.Context, token, from string, amount types.Amount) error

	// PushOut moves amount of token from Holder to the given account.
	PushOut(ctx context.Context, token, to string, amount types.Amount) error

	// BalanceOf reports holder's balance of token.
	BalanceOf(ctx context.Context, token, holder string) (types.Amount, error)

	// Decimals reports the display precision of token.
	Decimals(ctx context.Context, token string) (uint8, error)
}
