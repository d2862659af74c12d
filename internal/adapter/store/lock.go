package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"docrag/internal/domain"
)

// FileLock is a cross-process lock guarding index writes.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a lock file next to the given index path.
func NewFileLock(indexPath string) *FileLock {
	lockPath := indexPath + ".lock"
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// TryLock acquires the lock without blocking. It returns
// domain.ErrIndexLocked when another process holds it.
func (l *FileLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", domain.ErrIndexLocked, l.path)
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Calling it on an unlocked FileLock is a no-op.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

func (l *FileLock) Path() string {
	return l.path
}
