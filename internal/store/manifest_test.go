package store

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

func TestManifest_WriteRead(t *testing.T) {
	// Given: a manifest for a finished build
	dir := t.TempDir()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	m := &Manifest{
		Version:   1,
		Backend:   BackendBleve,
		Language:  "en",
		Encoding:  "ISO-8859-1",
		Dump:      "enwiki.xml.bz2",
		Documents: 50,
		FirstID:   1,
		LastID:    50,
		Builds:    1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// When: writing and reading it back
	require.NoError(t, WriteManifest(dir, m))
	got, err := ReadManifest(dir)

	// Then: fields survive and appends start after the last id
	require.NoError(t, err)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.True(t, now.Equal(got.UpdatedAt))
	got.CreatedAt, got.UpdatedAt = m.CreatedAt, m.UpdatedAt
	assert.Equal(t, m, got)
	assert.Equal(t, DocumentID(51), got.NextID())

	// And: no temp files remain
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadManifest_Missing(t *testing.T) {
	_, err := ReadManifest(t.TempDir())

	require.Error(t, err)
	assert.Equal(t, wderrors.ErrCodeIndexNotFound, wderrors.GetCode(err))
}

func TestReadManifest_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(ManifestPath(dir), []byte("documents: [oops"), 0o644))

	_, err := ReadManifest(dir)

	require.Error(t, err)
	assert.Equal(t, wderrors.ErrCodeIndexInit, wderrors.GetCode(err))
}

func TestOutputLock_Exclusive(t *testing.T) {
	// Given: a held lock
	dir := t.TempDir()
	first, err := AcquireOutputLock(dir)
	require.NoError(t, err)
	assert.FileExists(t, first.Path())

	// When: a second build tries the same directory
	_, err = AcquireOutputLock(dir)

	// Then: it is refused as locked
	require.Error(t, err)
	assert.Equal(t, wderrors.ErrCodeOutputLocked, wderrors.GetCode(err))

	// And: releasing frees it
	require.NoError(t, first.Release())
	require.NoError(t, first.Release())
	second, err := AcquireOutputLock(dir)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
