// Package lockfile enforces single-instance execution. A run holds an
// advisory file lock for its whole lifetime so two mediasort processes
// never mutate a tree at the same time.
package lockfile

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// FileName is the run lock's name inside the backup root.
const FileName = ".mediasort.lock"

// ErrAlreadyLocked means another mediasort process holds the run lock.
var ErrAlreadyLocked = errors.New("another mediasort run is already active")

// Lock is a non-blocking advisory file lock.
type Lock struct {
	fl   *flock.Flock
	path string
}

// New creates a lock handle for the given path. Nothing is acquired
// until Acquire is called.
func New(path string) *Lock {
	return &Lock{fl: flock.New(path), path: path}
}

// Acquire takes the lock without blocking. It returns ErrAlreadyLocked
// when another process holds it.
func (l *Lock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock file %s)", ErrAlreadyLocked, l.path)
	}
	return nil
}

// Release drops the lock. The lock file itself stays in place; only
// the advisory lock is released.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }
