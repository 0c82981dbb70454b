package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockName is the lock file created in the temp directory.
const LockName = "comcut.lock"

// ErrLocked is returned when another run holds the temp directory.
var ErrLocked = errors.New("another comcut run is using the temp directory")

// AcquireLock takes the exclusive run lock in tempDir.
func AcquireLock(tempDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	lock := flock.New(filepath.Join(tempDir, LockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, lock.Path())
	}
	return lock, nil
}
