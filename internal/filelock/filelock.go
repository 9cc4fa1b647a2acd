// Package filelock writes result files atomically while holding an
// exclusive lock, so concurrent spfind runs targeting the same file never
// interleave or expose a partial write.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
)

// FileMode is the permission of files written by AtomicWrite (rw-r--r--).
const FileMode os.FileMode = 0644

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Lock acquires an exclusive lock on the file, blocking until the lock is available.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// TryLock attempts to acquire an exclusive lock on the file without blocking.
// Returns true if the lock was acquired, false if the lock is held elsewhere.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// AtomicWrite replaces path with data. Readers see either the old content
// or the new content, never a mix. Parent directories are created.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := renameio.WriteFile(path, data, FileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LockAndWrite acquires a lock, performs an atomic write, and releases the lock.
// If another process holds the lock, onWait (when non-nil) is called once
// before blocking.
//
// The lock path is derived by appending ".lock" to the target path.
// Example: writing to "matches.txt" uses lock file "matches.txt.lock"
func LockAndWrite(path string, data []byte, onWait func()) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	lock := NewFileLock(path + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		if onWait != nil {
			onWait()
		}
		if err := lock.Lock(); err != nil {
			return err
		}
	}
	defer lock.Unlock()

	return AtomicWrite(path, data)
}
