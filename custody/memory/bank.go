// Package memory provides an in-process balance book implementing
// custody.Adapter. It is intended for tests and for embedding the ledger
// where no external token system exists.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/custody"
	"github.com/xraph/vesting/types"
)

// DefaultDecimals is reported for tokens without an explicit precision.
const DefaultDecimals uint8 = 18

// DefaultHolder is the account the ledger custodies under unless overridden.
const DefaultHolder = "vesting"

// Op identifies a value-moving call for failure injection.
type Op string

const (
	OpPullIn  Op = "pull_in"
	OpPushOut Op = "push_out"
)

var _ custody.Adapter = (*Bank)(nil)

// Bank is a map-backed token book. It is safe for concurrent use.
type Bank struct {
	mu       sync.RWMutex
	holder   string
	balances map[string]map[string]types.Amount // token -> account -> balance
	decimals map[string]uint8
	failures map[Op][]error
}

// Option configures a Bank.
type Option func(*Bank)

// WithHolder sets the custody account name.
func WithHolder(holder string) Option {
	return func(b *Bank) { b.holder = holder }
}

// New creates an empty Bank.
func New(opts ...Option) *Bank {
	b := &Bank{
		holder:   DefaultHolder,
		balances: make(map[string]map[string]types.Amount),
		decimals: make(map[string]uint8),
		failures: make(map[Op][]error),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Holder returns the custody account.
func (b *Bank) Holder() string { return b.holder }

// Mint credits amount of token to account out of thin air.
func (b *Bank) Mint(token, account string, amount types.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.credit(token, account, amount)
}

// SetDecimals sets the reported precision for token.
func (b *Bank) SetDecimals(token string, decimals uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.decimals[token] = decimals
}

// FailNext queues err to be returned by the next call of op. Queued errors
// are consumed in order, one per call, before any balance is touched.
func (b *Bank) FailNext(op Op, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures[op] = append(b.failures[op], err)
}

// Transfer moves amount of token between two arbitrary accounts.
func (b *Bank) Transfer(_ context.Context, token, from, to string, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.move(token, from, to, amount)
}

// PullIn moves amount from the given account into the custody account.
func (b *Bank) PullIn(_ context.Context, token, from string, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected(OpPullIn); err != nil {
		return err
	}
	return b.move(token, from, b.holder, amount)
}

// PushOut moves amount from the custody account to the given account.
func (b *Bank) PushOut(_ context.Context, token, to string, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected(OpPushOut); err != nil {
		return err
	}
	return b.move(token, b.holder, to, amount)
}

// BalanceOf reports holder's balance of token. Unknown accounts hold zero.
func (b *Bank) BalanceOf(_ context.Context, token, holder string) (types.Amount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.balance(token, holder), nil
}

// Decimals reports the precision of token, DefaultDecimals if unset.
func (b *Bank) Decimals(_ context.Context, token string) (uint8, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if d, ok := b.decimals[token]; ok {
		return d, nil
	}
	return DefaultDecimals, nil
}

func (b *Bank) injected(op Op) error {
	queue := b.failures[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	b.failures[op] = queue[1:]
	if err == nil {
		err = vesting.ErrTransferFailed
	}
	return err
}

func (b *Bank) move(token, from, to string, amount types.Amount) error {
	if token == "" || from == "" || to == "" {
		return fmt.Errorf("custody/memory: empty token or account: %w", vesting.ErrTransferFailed)
	}

	have := b.balance(token, from)
	if have.LT(amount) {
		return fmt.Errorf("custody/memory: %s holds %s %s, needs %s: %w",
			from, have, token, amount, vesting.ErrInsufficientFunds)
	}

	b.accounts(token)[from] = have.Sub(amount)
	b.credit(token, to, amount)
	return nil
}

func (b *Bank) credit(token, account string, amount types.Amount) {
	accounts := b.accounts(token)
	accounts[account] = accounts[account].Add(amount)
}

func (b *Bank) accounts(token string) map[string]types.Amount {
	accounts, ok := b.balances[token]
	if !ok {
		accounts = make(map[string]types.Amount)
		b.balances[token] = accounts
	}
	return accounts
}

func (b *Bank) balance(token, account string) types.Amount {
	return b.balances[token][account]
}
