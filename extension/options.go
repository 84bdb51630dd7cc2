package extension

import (
	"github.com/xraph/grove"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/custody"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/store"
)

// Option configures the vesting Forge extension.
type Option func(*Extension)

// WithStore sets the store for the vesting ledger. It takes precedence
// over WithGroveDB.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store from a grove database. The backend is
// chosen by Config.Driver.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}

// WithCustody sets the custody adapter that holds committed tokens.
func WithCustody(c custody.Adapter) Option {
	return func(e *Extension) {
		e.custody = c
	}
}

// WithLedgerOption passes a vesting.Option through to the underlying ledger.
func WithLedgerOption(opt vesting.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, vesting.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithOwner sets the owner seeded on first start.
func WithOwner(owner string) Option {
	return func(e *Extension) { e.config.Owner = owner }
}

// WithDriver selects the grove-backed store driver.
func WithDriver(driver string) Option {
	return func(e *Extension) { e.config.Driver = driver }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
