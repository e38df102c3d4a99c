package cmd

import (
	"io/fs"
	"path/filepath"

	"github.com/Aman-CERP/wikidex/internal/store"
)

// openIndex opens the index in dir for reading. The manifest, when present,
// supplies the backend and language; otherwise the backend is detected and
// language-neutral analysis is used.
func openIndex(dir string) (store.Index, *store.Manifest, error) {
	m, err := store.ReadManifest(dir)
	if err != nil {
		if store.DetectBackend(dir) == "" {
			return nil, nil, err
		}
	}

	opts := store.Options{Dir: dir}
	if m != nil {
		opts.Backend = m.Backend
		opts.Language = m.Language
	}
	idx, err := store.Open(opts)
	if err != nil {
		return nil, nil, err
	}
	return idx, m, nil
}

// dirSize sums the sizes of regular files under dir.
func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
