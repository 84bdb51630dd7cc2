// Package extension provides the Forge extension adapter for the vesting ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.vesting" or "vesting" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/custody"
	custodymem "github.com/xraph/vesting/custody/memory"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/store/mongo"
	"github.com/xraph/vesting/store/postgres"
	"github.com/xraph/vesting/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "vesting"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Time-locked token vesting ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the vesting ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *vesting.Ledger
	store      store.Store
	custody    custody.Adapter
	groveDB    *grove.DB
	ledgerOpts []vesting.Option
}

// New creates a new vesting Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *vesting.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.init(); err != nil {
		return err
	}

	return vessel.Provide(fapp.Container(), func() (*vesting.Ledger, error) {
		return e.engine, nil
	})
}

// init resolves the store and custody adapter and builds the ledger.
func (e *Extension) init() error {
	if e.store == nil {
		s, err := buildStore(e.config.Driver, e.groveDB)
		if err != nil {
			return err
		}
		e.store = s
	}

	if e.custody == nil {
		e.custody = custodymem.New(custodymem.WithHolder(e.config.CustodyHolder))
	}

	e.engine = vesting.New(e.store, e.custody, e.buildLedgerOpts()...)
	return nil
}

// buildStore picks the store backend for driver.
func buildStore(driver string, db *grove.DB) (store.Store, error) {
	if driver == "" || driver == DriverMemory {
		return memory.New(), nil
	}
	if db == nil {
		return nil, fmt.Errorf("vesting: driver %q needs a grove database, see WithGroveDB", driver)
	}

	switch driver {
	case DriverPostgres:
		return postgres.New(db), nil
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverMongo:
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("vesting: unknown store driver %q", driver)
	}
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("vesting: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("vesting: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs vesting.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []vesting.Option {
	opts := make([]vesting.Option, 0, len(e.ledgerOpts)+2)

	if e.config.Owner != "" {
		opts = append(opts, vesting.WithOwner(e.config.Owner))
	}
	if e.config.DisableMigrate {
		opts = append(opts, vesting.WithoutMigrate())
	}

	// Pass-through options go last so they can override config.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("vesting: configuration is required but not found in config files; " +
				"ensure 'extensions.vesting' or 'vesting' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("vesting: configuration loaded",
		forge.F("owner", e.config.Owner),
		forge.F("driver", e.config.Driver),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("custody_holder", e.config.CustodyHolder),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.vesting", "vesting"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("vesting: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("vesting: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	if cfg.CustodyHolder == "" {
		cfg.CustodyHolder = defaults.CustodyHolder
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.Owner == "" {
		yamlConfig.Owner = programmaticConfig.Owner
	}
	if yamlConfig.Driver == "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}
	if yamlConfig.CustodyHolder == "" {
		yamlConfig.CustodyHolder = programmaticConfig.CustodyHolder
	}
	yamlConfig.RequireConfig = programmaticConfig.RequireConfig

	return mergeWithDefaults(yamlConfig)
}
