package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

// isolate points the user config lookup at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	return xdg
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "en", cfg.Build.Language)
	assert.Equal(t, "ISO-8859-1", cfg.Build.Encoding)
	assert.Equal(t, 3, cfg.Build.Workers)
	assert.Equal(t, 1000, cfg.Build.QueueCapacity)
	assert.Equal(t, 4000, cfg.Build.MinBodyLength)
	assert.Equal(t, 0, cfg.Build.MaxRecords)
	assert.Equal(t, 0, cfg.Build.DedupeWindow)
	assert.Equal(t, uint64(1), cfg.Build.IDBase)
	assert.Equal(t, 1000, cfg.Build.ProgressInterval)
	assert.Equal(t, BackendBleve, cfg.Index.Backend)
	assert.Equal(t, 500, cfg.Index.BatchSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Given: no user or project config
	isolate(t)

	// When: loading configuration
	cfg, err := Load(t.TempDir(), "")

	// Then: defaults are returned
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_ProjectFile_OverridesDefaults(t *testing.T) {
	// Given: a .wikidex.yaml in the working directory
	isolate(t)
	dir := t.TempDir()
	content := `
build:
  workers: 8
  queue_capacity: 64
  min_body_length: 100
index:
  backend: sqlite
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".wikidex.yaml"), []byte(content), 0o644))

	// When: loading configuration
	cfg, err := Load(dir, "")

	// Then: file values win, untouched values keep defaults
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Build.Workers)
	assert.Equal(t, 64, cfg.Build.QueueCapacity)
	assert.Equal(t, 100, cfg.Build.MinBodyLength)
	assert.Equal(t, BackendSQLite, cfg.Index.Backend)
	assert.Equal(t, "ISO-8859-1", cfg.Build.Encoding)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".wikidex.yaml"), []byte("build:\n  workers: 2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".wikidex.yml"), []byte("build:\n  workers: 9\n"), 0o644))

	cfg, err := Load(dir, "")

	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Build.Workers)
}

func TestLoad_UserConfigThenExplicitFile(t *testing.T) {
	// Given: a user config and an explicit --config file
	xdg := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "wikidex"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "wikidex", "config.yaml"),
		[]byte("build:\n  workers: 5\n  encoding: UTF-8\n"), 0o644))
	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("build:\n  workers: 7\n"), 0o644))

	// When: loading with the explicit path
	cfg, err := Load(t.TempDir(), explicit)

	// Then: the explicit file wins and user values fill the rest
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Build.Workers)
	assert.Equal(t, "UTF-8", cfg.Build.Encoding)
}

func TestLoad_InvalidYaml_ReturnsConfigError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".wikidex.yaml"), []byte("build: [unclosed"), 0o644))

	_, err := Load(dir, "")

	require.Error(t, err)
	assert.Equal(t, wderrors.ErrCodeConfigInvalid, wderrors.GetCode(err))
}

func TestLoad_MissingExplicitFile_ReturnsError(t *testing.T) {
	isolate(t)

	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	// Given: a project file and env vars
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".wikidex.yaml"), []byte("build:\n  workers: 4\n"), 0o644))
	t.Setenv("WIKIDEX_WORKERS", "6")
	t.Setenv("WIKIDEX_MAX_RECORDS", "25")
	t.Setenv("WIKIDEX_BACKEND", "SQLite")
	t.Setenv("WIKIDEX_ENCODING", "UTF-8")
	t.Setenv("WIKIDEX_LOG_LEVEL", "debug")
	t.Setenv("WIKIDEX_QUEUE_CAPACITY", "not-a-number")

	// When: loading
	cfg, err := Load(dir, "")

	// Then: env wins and bad numbers are ignored
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Build.Workers)
	assert.Equal(t, 25, cfg.Build.MaxRecords)
	assert.Equal(t, BackendSQLite, cfg.Index.Backend)
	assert.Equal(t, "UTF-8", cfg.Build.Encoding)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 1000, cfg.Build.QueueCapacity)
}

func TestLoad_EnvDisablesDedupeWindow(t *testing.T) {
	// Given: a project file enabling the dedupe window, and an env var of 0
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".wikidex.yaml"), []byte("build:\n  dedupe_window: 64\n"), 0o644))
	t.Setenv("WIKIDEX_DEDUPE_WINDOW", "0")

	// When: loading
	cfg, err := Load(dir, "")

	// Then: the env var turns it off
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Build.DedupeWindow)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero workers", func(c *Config) { c.Build.Workers = 0 }},
		{"zero queue capacity", func(c *Config) { c.Build.QueueCapacity = 0 }},
		{"negative min body", func(c *Config) { c.Build.MinBodyLength = -1 }},
		{"negative max records", func(c *Config) { c.Build.MaxRecords = -1 }},
		{"negative dedupe", func(c *Config) { c.Build.DedupeWindow = -3 }},
		{"zero id base", func(c *Config) { c.Build.IDBase = 0 }},
		{"empty encoding", func(c *Config) { c.Build.Encoding = " " }},
		{"unknown backend", func(c *Config) { c.Index.Backend = "lucene" }},
		{"zero batch", func(c *Config) { c.Index.BatchSize = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.True(t, wderrors.IsFatal(err))
			assert.Equal(t, wderrors.ErrCodeConfigInvalid, wderrors.GetCode(err))
		})
	}
}

func TestWriteYAML_LoadsBack(t *testing.T) {
	// Given: a modified config written to disk
	isolate(t)
	cfg := NewConfig()
	cfg.Build.Workers = 11
	cfg.Index.Backend = BackendSQLite
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	// When: loading it as an explicit config
	loaded, err := Load(t.TempDir(), path)

	// Then: values survive
	require.NoError(t, err)
	assert.Equal(t, 11, loaded.Build.Workers)
	assert.Equal(t, BackendSQLite, loaded.Index.Backend)
}
