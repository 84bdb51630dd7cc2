package extension

// Store driver names accepted in Config.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds the vesting extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vesting" or "vesting" keys).
type Config struct {
	// Owner seeds the ledger owner on first start. A persisted owner
	// always wins over this value.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Driver selects the store backend built from the grove database passed
	// via WithGroveDB: "postgres", "sqlite" or "mongo" (default: "memory").
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// CustodyHolder is the account name of the in-process custody bank
	// used when no custody adapter is supplied (default: "vesting").
	CustodyHolder string `json:"custody_holder" mapstructure:"custody_holder" yaml:"custody_holder"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:        DriverMemory,
		CustodyHolder: "vesting",
	}
}
