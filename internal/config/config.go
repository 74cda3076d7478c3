package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

type (
	Config struct {
		Database
		Log
		Catalog
	}

	Database struct {
		Path string
	}
	Log struct {
		Level  slog.Level
		Format LogFormat
	}
	Catalog struct {
		// RepairOnDelete cleans up borrow rows and borrowed flags when a book
		// or user is deleted.
		RepairOnDelete bool
	}
)

// Load resolves configuration from, in increasing precedence: defaults, the
// config file, LIBRARY_* environment variables and changed flags. An empty
// configFile searches the working directory for library.* and tolerates its
// absence. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, string(LogFormatText))
	v.SetDefault(KeyRepairOnDelete, false)

	if flags != nil {
		bindings := map[string]string{
			KeyDatabasePath:   FlagDatabasePath,
			KeyLogLevel:       FlagLogLevel,
			KeyLogFormat:      FlagLogFormat,
			KeyRepairOnDelete: FlagRepairOnDelete,
		}
		for key, name := range bindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}

	format := LogFormat(strings.ToLower(v.GetString(KeyLogFormat)))
	if format != LogFormatText && format != LogFormatJSON {
		return nil, fmt.Errorf("invalid %s %q: want %s or %s", KeyLogFormat, format, LogFormatText, LogFormatJSON)
	}

	path := strings.TrimSpace(v.GetString(KeyDatabasePath))
	if path == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyDatabasePath)
	}

	return &Config{
		Database: Database{
			Path: path,
		},
		Log: Log{
			Level:  level,
			Format: format,
		},
		Catalog: Catalog{
			RepairOnDelete: v.GetBool(KeyRepairOnDelete),
		},
	}, nil
}

// NewLogger builds the slog logger described by the Log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Log.Level}
	if c.Log.Format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
