package store

import (
	"fmt"
	"os"
	"strings"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

// Create initialises a new index for opts.Backend.
func Create(opts Options) (Index, error) {
	switch normalizeBackend(opts.Backend) {
	case BackendBleve:
		return NewBleveIndex(opts)
	case BackendSQLite:
		return NewSQLiteIndex(opts)
	default:
		return nil, unknownBackend(opts.Backend)
	}
}

// Open opens an existing on-disk index. When opts.Backend is empty the
// backend is detected from the files in opts.Dir.
func Open(opts Options) (Index, error) {
	backend := normalizeBackend(opts.Backend)
	if strings.TrimSpace(opts.Backend) == "" {
		backend = DetectBackend(opts.Dir)
		if backend == "" {
			return nil, wderrors.New(wderrors.ErrCodeIndexNotFound,
				fmt.Sprintf("no index found in %s", opts.Dir), nil).
				WithSuggestion("run 'wikidex build' first")
		}
	}

	switch backend {
	case BackendBleve:
		return OpenBleveIndex(opts)
	case BackendSQLite:
		return OpenSQLiteIndex(opts)
	default:
		return nil, unknownBackend(opts.Backend)
	}
}

// DetectBackend reports which backend's files exist in dir, or "" if none.
func DetectBackend(dir string) string {
	if dirExists(BleveIndexPath(dir)) {
		return BackendBleve
	}
	if fileExists(SQLiteIndexPath(dir)) {
		return BackendSQLite
	}
	return ""
}

// Remove deletes index files and the manifest from dir, leaving other files alone.
func Remove(dir string) error {
	paths := []string{
		BleveIndexPath(dir),
		SQLiteIndexPath(dir),
		SQLiteIndexPath(dir) + "-wal",
		SQLiteIndexPath(dir) + "-shm",
		ManifestPath(dir),
	}
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

func normalizeBackend(b string) string {
	b = strings.ToLower(strings.TrimSpace(b))
	if b == "" {
		return BackendBleve
	}
	return b
}

func unknownBackend(b string) error {
	return wderrors.New(wderrors.ErrCodeIndexInit,
		fmt.Sprintf("unknown index backend: %s (valid options: bleve, sqlite)", b), nil)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
