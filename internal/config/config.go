// Package config loads wikidex configuration from defaults, YAML files and
// WIKIDEX_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

// Backend names accepted by index.backend.
const (
	BackendBleve  = "bleve"
	BackendSQLite = "sqlite"
)

// Config represents the wikidex configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Build   BuildConfig   `yaml:"build" json:"build"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BuildConfig contains pipeline settings.
type BuildConfig struct {
	Language      string `yaml:"language" json:"language"`
	Encoding      string `yaml:"encoding" json:"encoding"`
	Workers       int    `yaml:"workers" json:"workers"`
	QueueCapacity int    `yaml:"queue_capacity" json:"queue_capacity"`
	// MinBodyLength is measured in characters, not bytes.
	MinBodyLength int `yaml:"min_body_length" json:"min_body_length"`
	// MaxRecords stops extraction after this many accepted records. 0 disables.
	MaxRecords int `yaml:"max_records" json:"max_records"`
	// DedupeWindow is the number of recent titles remembered. 0 disables.
	DedupeWindow     int    `yaml:"dedupe_window" json:"dedupe_window"`
	IDBase           uint64 `yaml:"id_base" json:"id_base"`
	ProgressInterval int    `yaml:"progress_interval" json:"progress_interval"`
}

// IndexConfig selects and tunes the indexing engine.
type IndexConfig struct {
	Backend   string `yaml:"backend" json:"backend"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Build: BuildConfig{
			Language:         "en",
			Encoding:         "ISO-8859-1",
			Workers:          3,
			QueueCapacity:    1000,
			MinBodyLength:    4000,
			MaxRecords:       0,
			DedupeWindow:     0,
			IDBase:           1,
			ProgressInterval: 1000,
		},
		Index: IndexConfig{
			Backend:   BackendBleve,
			BatchSize: 500,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/wikidex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/wikidex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wikidex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "wikidex", "config.yaml")
	}
	return filepath.Join(home, ".config", "wikidex", "config.yaml")
}

// Load loads configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/wikidex/config.yaml)
//  3. configPath if set, otherwise .wikidex.yaml / .wikidex.yml in dir
//  4. Environment variables (WIKIDEX_*)
//
// CLI flags are applied by the caller, which then calls Validate.
func Load(dir, configPath string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if configPath != "" {
		if err := cfg.loadYAML(configPath); err != nil {
			return nil, err
		}
	} else if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) loadFromDir(dir string) error {
	for _, name := range []string{".wikidex.yaml", ".wikidex.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return wderrors.New(wderrors.ErrCodeConfigInvalid,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return wderrors.New(wderrors.ErrCodeConfigInvalid,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
// Zero means "unset", so max_records and dedupe_window cannot be turned off
// from a file once a lower layer enabled them; use the env var or flag.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	b, ob := &c.Build, other.Build
	if ob.Language != "" {
		b.Language = ob.Language
	}
	if ob.Encoding != "" {
		b.Encoding = ob.Encoding
	}
	if ob.Workers != 0 {
		b.Workers = ob.Workers
	}
	if ob.QueueCapacity != 0 {
		b.QueueCapacity = ob.QueueCapacity
	}
	if ob.MinBodyLength != 0 {
		b.MinBodyLength = ob.MinBodyLength
	}
	if ob.MaxRecords != 0 {
		b.MaxRecords = ob.MaxRecords
	}
	if ob.DedupeWindow != 0 {
		b.DedupeWindow = ob.DedupeWindow
	}
	if ob.IDBase != 0 {
		b.IDBase = ob.IDBase
	}
	if ob.ProgressInterval != 0 {
		b.ProgressInterval = ob.ProgressInterval
	}

	if other.Index.Backend != "" {
		c.Index.Backend = other.Index.Backend
	}
	if other.Index.BatchSize != 0 {
		c.Index.BatchSize = other.Index.BatchSize
	}

	l, ol := &c.Logging, other.Logging
	if ol.Level != "" {
		l.Level = ol.Level
	}
	if ol.File != "" {
		l.File = ol.File
	}
	if ol.MaxSizeMB != 0 {
		l.MaxSizeMB = ol.MaxSizeMB
	}
	if ol.MaxFiles != 0 {
		l.MaxFiles = ol.MaxFiles
	}
}

// applyEnvOverrides applies WIKIDEX_* environment variable overrides.
// Unparseable numbers are ignored.
func (c *Config) applyEnvOverrides() {
	intVars := map[string]*int{
		"WIKIDEX_WORKERS":         &c.Build.Workers,
		"WIKIDEX_QUEUE_CAPACITY":  &c.Build.QueueCapacity,
		"WIKIDEX_MIN_BODY_LENGTH": &c.Build.MinBodyLength,
		"WIKIDEX_MAX_RECORDS":     &c.Build.MaxRecords,
		"WIKIDEX_DEDUPE_WINDOW":   &c.Build.DedupeWindow,
	}
	for name, dst := range intVars {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	if v := os.Getenv("WIKIDEX_ENCODING"); v != "" {
		c.Build.Encoding = v
	}
	if v := os.Getenv("WIKIDEX_BACKEND"); v != "" {
		c.Index.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("WIKIDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration and returns an ERR_101 error if invalid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return wderrors.New(wderrors.ErrCodeConfigInvalid, fmt.Sprintf(format, args...), nil)
	}

	if c.Build.Workers <= 0 {
		return invalid("build.workers must be positive, got %d", c.Build.Workers)
	}
	if c.Build.QueueCapacity <= 0 {
		return invalid("build.queue_capacity must be positive, got %d", c.Build.QueueCapacity)
	}
	if c.Build.MinBodyLength < 0 {
		return invalid("build.min_body_length must be non-negative, got %d", c.Build.MinBodyLength)
	}
	if c.Build.MaxRecords < 0 {
		return invalid("build.max_records must be non-negative, got %d", c.Build.MaxRecords)
	}
	if c.Build.DedupeWindow < 0 {
		return invalid("build.dedupe_window must be non-negative, got %d", c.Build.DedupeWindow)
	}
	if c.Build.IDBase == 0 {
		return invalid("build.id_base must be at least 1")
	}
	if c.Build.ProgressInterval < 0 {
		return invalid("build.progress_interval must be non-negative, got %d", c.Build.ProgressInterval)
	}
	if strings.TrimSpace(c.Build.Encoding) == "" {
		return invalid("build.encoding must not be empty")
	}

	switch strings.ToLower(c.Index.Backend) {
	case BackendBleve, BackendSQLite:
	default:
		return invalid("index.backend must be 'bleve' or 'sqlite', got %s", c.Index.Backend)
	}
	if c.Index.BatchSize <= 0 {
		return invalid("index.batch_size must be positive, got %d", c.Index.BatchSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
