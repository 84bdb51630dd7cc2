package vesting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/vesting/custody"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/store"
)

// Ledger is the vesting engine. It is the only component that mutates
// schedules and the only one that asks the custody adapter to move value.
//
// Every mutating operation holds one ledger-wide lock for its full duration,
// so creates, releases, withdrawals and ownership changes observe a single
// sequential order. Queries hold the same lock for reading. Plugin hooks are
// emitted after the lock is released, so a hook may query the ledger.
type Ledger struct {
	store   store.Store
	custody custody.Adapter
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   Clock

	// Held exclusively by mutations, shared by queries.
	mu sync.RWMutex

	stateMu   sync.RWMutex
	owner     string
	seedOwner string
	started   bool

	skipMigrate bool
}

// New creates a new Ledger instance. Call Start before issuing mutations.
func New(s store.Store, c custody.Adapter, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		custody: c,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		clock:   SystemClock{},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source used for vesting computations.
func WithClock(c Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithOwner sets the initial owner. It only takes effect when the store has
// no owner recorded yet; a persisted owner always wins.
func WithOwner(owner string) Option {
	return func(l *Ledger) {
		l.seedOwner = owner
	}
}

// WithoutMigrate makes Start skip store migrations, for deployments that
// manage the schema out of band.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.skipMigrate = true
	}
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Start migrates the store, unless WithoutMigrate was given, and loads the
// current owner.
func (l *Ledger) Start(ctx context.Context) error {
	owner, err := l.start(ctx)
	if err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("vesting ledger started",
		"owner", owner,
		"custody_holder", l.custody.Holder(),
		"plugins", l.plugins.Count(),
	)

	return nil
}

func (l *Ledger) start(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.skipMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return "", fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	owner, err := l.loadOwner(ctx)
	if err != nil {
		return "", err
	}

	l.stateMu.Lock()
	l.owner = owner
	l.started = true
	l.stateMu.Unlock()

	return owner, nil
}

func (l *Ledger) loadOwner(ctx context.Context) (string, error) {
	owner, err := l.store.GetOwner(ctx)
	switch {
	case err == nil:
		if l.seedOwner != "" && l.seedOwner != owner {
			l.logger.Warn("configured owner ignored, store already has one",
				"configured", l.seedOwner,
				"owner", owner,
			)
		}
		return owner, nil
	case !IsNotFound(err):
		return "", fmt.Errorf("vesting: load owner: %w", err)
	}

	if l.seedOwner == "" {
		return "", ValidationError{Field: "owner", Message: "no owner recorded and none configured"}
	}
	if err := l.store.SetOwner(ctx, l.seedOwner); err != nil {
		return "", fmt.Errorf("vesting: seed owner: %w", err)
	}
	return l.seedOwner, nil
}

// Stop shuts down the Ledger. Mutations are refused from the moment it is
// called; shutdown hooks run before the store is closed.
func (l *Ledger) Stop() error {
	l.mu.Lock()
	l.stateMu.Lock()
	l.started = false
	l.stateMu.Unlock()
	l.mu.Unlock()

	l.plugins.EmitShutdown(context.Background())

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Close()
}

// Owner returns the current owner, empty before Start.
func (l *Ledger) Owner() string {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.owner
}

// TransferOwnership hands ownership to newOwner. It takes effect immediately;
// there is no acceptance step.
func (l *Ledger) TransferOwnership(ctx context.Context, caller, newOwner string) error {
	previous, err := l.transferOwnership(ctx, caller, newOwner)
	if err != nil {
		return err
	}

	l.logger.Info("ownership transferred",
		"previous", previous,
		"owner", newOwner,
	)
	l.plugins.EmitOwnershipTransferred(ctx, previous, newOwner)

	return nil
}

func (l *Ledger) transferOwnership(ctx context.Context, caller, newOwner string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	previous, err := l.authorizeOwner(caller)
	if err != nil {
		return "", err
	}
	if newOwner == "" {
		return "", ValidationError{Field: "new_owner", Message: "must not be empty"}
	}

	if err := l.store.SetOwner(ctx, newOwner); err != nil {
		return "", fmt.Errorf("vesting: transfer ownership: %w", err)
	}

	l.stateMu.Lock()
	l.owner = newOwner
	l.stateMu.Unlock()

	return previous, nil
}

// authorizeOwner checks that the ledger is started and caller is the owner.
// It returns the owner. Callers must hold l.mu.
func (l *Ledger) authorizeOwner(caller string) (string, error) {
	l.stateMu.RLock()
	owner, started := l.owner, l.started
	l.stateMu.RUnlock()

	if !started {
		return "", ErrNotStarted
	}
	if caller == "" || caller != owner {
		return "", fmt.Errorf("%w: %q is not the owner", ErrUnauthorized, caller)
	}
	return owner, nil
}

func (l *Ledger) requireStarted() error {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	if !l.started {
		return ErrNotStarted
	}
	return nil
}

// transferError classifies a custody failure. Errors already carrying one of
// the custody sentinels are kept; anything else is reported as a failed
// transfer.
func transferError(op string, err error) error {
	if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrTransferFailed) {
		return fmt.Errorf("vesting: %s: %w", op, err)
	}
	return fmt.Errorf("vesting: %s: %w: %w", op, ErrTransferFailed, err)
}
