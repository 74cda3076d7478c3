package config

const (
	// DefaultDatabasePath is where the catalog lives unless configured otherwise.
	DefaultDatabasePath = "library.db"

	// EnvPrefix prefixes every environment variable, e.g. LIBRARY_DATABASE_PATH.
	EnvPrefix = "LIBRARY"

	// ConfigName is the config file looked up in the working directory
	// (library.yaml, library.toml, ...).
	ConfigName = "library"
)

// Keys shared by viper, env and cobra flag bindings.
const (
	KeyDatabasePath   = "database_path"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyRepairOnDelete = "repair_on_delete"
)

// Flag names bound to the keys above.
const (
	FlagDatabasePath   = "db"
	FlagLogLevel       = "log-level"
	FlagLogFormat      = "log-format"
	FlagRepairOnDelete = "repair-on-delete"
)
