// Package config loads, validates and upgrades the instance
// configuration (isomer.conf).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ri0t/isomer/internal/errors"
)

// ConfigVersion is the current configuration format version. Upgrade
// walks older files up to this.
const ConfigVersion = 3

// DefaultFilename is the canonical name of the instance configuration.
const DefaultFilename = "isomer.conf"

// Config holds all instance configuration.
type Config struct {
	Version  int    `yaml:"version"`
	Instance string `yaml:"instance"`

	Database    DatabaseConfig    `yaml:"database"`
	Paths       PathsConfig       `yaml:"paths"`
	Docs        DocsConfig        `yaml:"docs"`
	Logging     LoggingConfig     `yaml:"logging"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Backup      BackupConfig      `yaml:"backup"`
}

// DatabaseConfig locates the object store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

// File returns the full path of the store file.
func (d DatabaseConfig) File() string {
	return filepath.Join(d.Path, d.Name+".db")
}

// PathsConfig lists the instance directories. MinimumFreeMB is the
// threshold below which system checks complain, per location.
type PathsConfig struct {
	Cache  string `yaml:"cache"`
	Lib    string `yaml:"lib"`
	Local  string `yaml:"local"`
	Backup string `yaml:"backup"`

	MinimumFreeMB int64 `yaml:"minimum_free_mb"`
}

// All returns the managed locations keyed by short name.
func (p PathsConfig) All() map[string]string {
	return map[string]string{
		"cache":  p.Cache,
		"lib":    p.Lib,
		"local":  p.Local,
		"backup": p.Backup,
	}
}

// DocsConfig configures error documentation handling.
type DocsConfig struct {
	BaseURL   string `yaml:"base_url"`
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig mirrors internal/logging's view of the logging section.
// Both packages parse the same file, so the keys must stay in sync.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Level      string          `yaml:"level"`
	Path       string          `yaml:"path"`
	JSONFormat bool            `yaml:"json_format"`
	Emitters   map[string]bool `yaml:"emitters"`
}

// MaintenanceConfig schedules the store maintenance component.
type MaintenanceConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
}

// BackupConfig schedules the store backup component.
type BackupConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
	Keep     int    `yaml:"keep"`
}

// Default returns the default configuration rooted at base.
func Default(base string) *Config {
	if base == "" {
		base = "/var/lib/isomer"
	}
	return &Config{
		Version:  ConfigVersion,
		Instance: "default",

		Database: DatabaseConfig{
			Path: filepath.Join(base, "db"),
			Name: "isomer",
		},

		Paths: PathsConfig{
			Cache:         filepath.Join(base, "cache"),
			Lib:           filepath.Join(base, "lib"),
			Local:         filepath.Join(base, "local"),
			Backup:        filepath.Join(base, "backup"),
			MinimumFreeMB: 500,
		},

		Docs: DocsConfig{
			BaseURL:   "https://isomeric.github.io/docs",
			OutputDir: filepath.Join(base, "docs", "errors"),
		},

		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Path:    filepath.Join(base, "var", "log"),
		},

		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Interval: "24h",
		},

		Backup: BackupConfig{
			Enabled:  true,
			Interval: "24h",
			Keep:     7,
		},
	}
}

// Load reads the configuration at path. A missing file yields the
// defaults; a present but malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.InvalidConfiguration, "failed to parse "+path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to path, creating directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Write is Save guarded against accidental overwrites. Without force a
// present file is refused with a coded error.
func (c *Config) Write(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.Newf(errors.NotOverwriting,
			"%s exists, use --force to overwrite", path)
	}
	return c.Save(path)
}

func (c *Config) applyEnvOverrides() {
	if instance := os.Getenv("ISOMER_INSTANCE"); instance != "" {
		c.Instance = instance
	}
	if path := os.Getenv("ISOMER_DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if level := os.Getenv("ISOMER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if url := os.Getenv("ISOMER_DOCS_URL"); url != "" {
		c.Docs.BaseURL = url
	}
}

// MaintenanceInterval returns the maintenance period as a duration.
func (c *Config) MaintenanceInterval() time.Duration {
	d, err := time.ParseDuration(c.Maintenance.Interval)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// BackupInterval returns the backup period as a duration.
func (c *Config) BackupInterval() time.Duration {
	d, err := time.ParseDuration(c.Backup.Interval)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Instance == "" {
		return errors.New(errors.InvalidConfiguration, "instance name is empty")
	}
	if c.Database.Path == "" || c.Database.Name == "" {
		return errors.New(errors.InvalidConfiguration, "database location is not configured")
	}
	if c.Docs.BaseURL == "" {
		return errors.New(errors.InvalidConfiguration, "docs base URL is empty")
	}
	if c.Maintenance.Enabled {
		if _, err := time.ParseDuration(c.Maintenance.Interval); err != nil {
			return errors.Wrap(errors.InvalidConfiguration,
				"maintenance interval does not parse", err)
		}
	}
	if c.Backup.Enabled {
		if _, err := time.ParseDuration(c.Backup.Interval); err != nil {
			return errors.Wrap(errors.InvalidConfiguration,
				"backup interval does not parse", err)
		}
		if c.Backup.Keep < 1 {
			return errors.New(errors.InvalidConfiguration, "backup keep count must be at least 1")
		}
	}
	return nil
}
