package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// FUSECOMPAT_LOGGING_LEVEL=debug.
const EnvPrefix = "FUSECOMPAT"

// Config is the complete mount configuration.
type Config struct {
	// Mountpoint is the directory the filesystem is mounted on.
	Mountpoint string `mapstructure:"mountpoint" validate:"required"`

	// Filesystem names the filesystem to serve.
	Filesystem string `mapstructure:"filesystem" validate:"required,oneof=hello memfs passthrough"`

	// Source is the host directory mirrored by passthrough.
	Source string `mapstructure:"source" validate:"required_if=Filesystem passthrough"`

	FSName     string `mapstructure:"fsname" validate:"required,excludesall=0x2C"`
	AllowOther bool   `mapstructure:"allow_other"`
	ReadOnly   bool   `mapstructure:"read_only"`
	Debug      bool   `mapstructure:"debug"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Format is text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// File, when set, receives the log instead of stderr and is rotated.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// Defaults for every optional key.
var defaults = map[string]any{
	"mountpoint":           "",
	"source":               "",
	"filesystem":           "memfs",
	"fsname":               "fusecompat",
	"allow_other":          false,
	"read_only":            false,
	"debug":                false,
	"logging.level":        "info",
	"logging.format":       "text",
	"logging.file":         "",
	"logging.max_size_mb":  100,
	"logging.max_backups":  3,
	"logging.max_age_days": 28,
}

// Loader assembles a Config from its sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader with defaults and environment overrides set up.
func NewLoader() *Loader {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlags binds flags so that any flag set on the command line overrides
// the other sources. Flag names use dashes where keys use underscores;
// nested keys are addressed as "logging-level" and so on.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if strings.HasPrefix(key, "logging_") {
			key = "logging." + strings.TrimPrefix(key, "logging_")
		}
		if _, known := defaults[key]; !known {
			return
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Set overrides a single key, e.g. the mountpoint taken from a positional
// argument.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// Load reads the optional config file at path, decodes and validates.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func normalize(cfg *Config) {
	cfg.Filesystem = strings.ToLower(strings.TrimSpace(cfg.Filesystem))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
}
