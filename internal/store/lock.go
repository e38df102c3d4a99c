package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

// LockFile is the lock file name inside an output directory.
const LockFile = ".wikidex.lock"

// OutputLock keeps two builds from writing the same output directory.
type OutputLock struct {
	flock  *flock.Flock
	locked bool
}

// AcquireOutputLock takes an exclusive, non-blocking lock on dir, creating
// dir if needed. A lock held by another process is ERR_204.
func AcquireOutputLock(dir string) (*OutputLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wderrors.New(wderrors.ErrCodeIndexInit,
			fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	l := &OutputLock{flock: flock.New(filepath.Join(dir, LockFile))}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return nil, wderrors.New(wderrors.ErrCodeOutputLocked, "failed to acquire output lock", err)
	}
	if !acquired {
		return nil, wderrors.New(wderrors.ErrCodeOutputLocked,
			fmt.Sprintf("output directory %s is in use by another build", dir), nil).
			WithSuggestion("wait for the other build to finish or choose another directory")
	}
	l.locked = true
	return l, nil
}

// Path returns the lock file path.
func (l *OutputLock) Path() string {
	return l.flock.Path()
}

// Release unlocks. Safe to call more than once.
func (l *OutputLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
