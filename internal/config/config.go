package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Veraticus/accusync/internal/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of accusync.
type Config struct {
	Database  DatabaseConfig
	Inventory InventoryConfig
	Logging   LoggingConfig
	Remote    RemoteConfig
	Detection DetectionConfig
}

// DatabaseConfig locates the local store.
type DatabaseConfig struct {
	Path string
}

// InventoryConfig locates the optional legacy inventory file.
type InventoryConfig struct {
	Path    string
	Timeout time.Duration
}

// RemoteConfig configures the optional remote design master.
type RemoteConfig struct {
	DSN           string
	Timeout       time.Duration
	RatePerSecond float64
	PageSize      int
}

// DetectionConfig tunes the detection engine.
type DetectionConfig struct {
	Workers   int
	AutoLearn bool
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("inventory.path", "")
	v.SetDefault("inventory.timeout", 3*time.Second)
	v.SetDefault("remote.dsn", "")
	v.SetDefault("remote.timeout", 5*time.Second)
	v.SetDefault("remote.rate_per_second", 5.0)
	v.SetDefault("remote.page_size", 1000)
	v.SetDefault("detection.workers", 4)
	v.SetDefault("detection.auto_learn", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads the configuration from v. The remote DSN falls back to the
// DATABASE_URL environment variable when no accusync key sets it.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Inventory: InventoryConfig{
			Path:    ExpandPath(v.GetString("inventory.path")),
			Timeout: v.GetDuration("inventory.timeout"),
		},
		Remote: RemoteConfig{
			DSN:           v.GetString("remote.dsn"),
			Timeout:       v.GetDuration("remote.timeout"),
			RatePerSecond: v.GetFloat64("remote.rate_per_second"),
			PageSize:      v.GetInt("remote.page_size"),
		},
		Detection: DetectionConfig{
			Workers:   v.GetInt("detection.workers"),
			AutoLearn: v.GetBool("detection.auto_learn"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if cfg.Remote.DSN == "" {
		cfg.Remote.DSN = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.Detection.Workers < 1 {
		return fmt.Errorf("%w: detection.workers must be at least 1, got %d", common.ErrInvalidConfig, c.Detection.Workers)
	}
	if c.Remote.Timeout <= 0 || c.Inventory.Timeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", common.ErrInvalidConfig)
	}
	if c.Remote.RatePerSecond <= 0 {
		return fmt.Errorf("%w: remote.rate_per_second must be positive", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// RemoteEnabled reports whether a remote design master is configured.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.DSN != ""
}

// InventoryEnabled reports whether a legacy inventory is configured.
func (c *Config) InventoryEnabled() bool {
	return c.Inventory.Path != ""
}

// LoadDotEnv loads environment variables from path without overriding
// variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
