package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("Info"))
	assert.True(t, ValidLevel("warning"))
	assert.False(t, ValidLevel("trace"))
}

func TestSetup_FileWritesJSON(t *testing.T) {
	// Given: a file-backed config without stderr
	path := filepath.Join(t.TempDir(), "logs", "wikidex.log")
	cfg := Config{Level: "debug", FilePath: path, MaxSizeMB: 1, MaxFiles: 2}

	// When: logging one record
	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	logger.Debug("build_started", slog.String("dump", "enwiki.xml"))
	cleanup()

	// Then: the record lands in the file as JSON
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"build_started"`)
	assert.Contains(t, string(data), `"dump":"enwiki.xml"`)
}

func TestSetup_NoFileUsesStderr(t *testing.T) {
	// Given: a console-only config with a captured stderr
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Stderr = &buf

	// When: logging an info and a debug record
	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	defer cleanup()
	logger.Info("build_started", "workers", 3)
	logger.Debug("worker_stopped")

	// Then: only the info record is written, as text
	assert.Contains(t, buf.String(), "msg=build_started workers=3")
	assert.NotContains(t, buf.String(), "worker_stopped")
}

func TestRotatingWriter_RotatesAtSize(t *testing.T) {
	// Given: a writer with a tiny limit
	path := filepath.Join(t.TempDir(), "wikidex.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	w.maxSize = 64

	// When: writing past the limit several times
	line := []byte(strings.Repeat("x", 40) + "\n")
	for i := 0; i < 5; i++ {
		_, err := w.Write(line)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	// Then: rotated files exist and no more than maxFiles are kept
	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")
}

func TestDefaultLogPath(t *testing.T) {
	assert.Equal(t, "wikidex.log", filepath.Base(DefaultLogPath()))
	assert.Equal(t, "logs", filepath.Base(DefaultLogDir()))
}
