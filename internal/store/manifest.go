package store

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

// ManifestFile is the manifest's file name inside an output directory.
const ManifestFile = "index.yaml"

// Manifest describes a built index so later commands can reopen it with
// the same backend and language and so appends continue the id sequence.
type Manifest struct {
	Version   int    `yaml:"version"`
	Backend   string `yaml:"backend"`
	Language  string `yaml:"language"`
	Encoding  string `yaml:"encoding"`
	Dump      string `yaml:"dump"`
	Documents uint64 `yaml:"documents"`
	// FirstID and LastID span every id assigned across all builds.
	// Zero LastID means no document has been indexed.
	FirstID   DocumentID `yaml:"first_id"`
	LastID    DocumentID `yaml:"last_id"`
	Builds    int        `yaml:"builds"`
	CreatedAt time.Time  `yaml:"created_at"`
	UpdatedAt time.Time  `yaml:"updated_at"`
}

// ManifestPath returns the manifest location for dir.
func ManifestPath(dir string) string {
	return filepath.Join(dir, ManifestFile)
}

// NextID returns the first id an appending build should use.
func (m *Manifest) NextID() DocumentID {
	return m.LastID + 1
}

// ReadManifest loads dir's manifest. A missing manifest is ERR_404.
func ReadManifest(dir string) (*Manifest, error) {
	path := ManifestPath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, wderrors.New(wderrors.ErrCodeIndexNotFound,
				fmt.Sprintf("no index manifest in %s", dir), err).
				WithSuggestion("run 'wikidex build' first")
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, wderrors.New(wderrors.ErrCodeIndexInit,
			fmt.Sprintf("corrupt manifest %s", path), err)
	}
	return &m, nil
}

// WriteManifest atomically replaces dir's manifest.
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmpName, ManifestPath(dir)); err != nil {
		return fmt.Errorf("failed to install manifest: %w", err)
	}
	return nil
}

// Exists reports whether dir already holds an index.
func Exists(dir string) bool {
	return fileExists(ManifestPath(dir)) || DetectBackend(dir) != ""
}
