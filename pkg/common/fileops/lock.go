package fileops

import (
	"fmt"
	"os"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/common/err"
)

const (
	pkgName = "fileops"

	// DefaultLockTimeout bounds how long AcquireLock waits for a held lock.
	DefaultLockTimeout = 5 * time.Second

	lockRetryDelay = 10 * time.Millisecond
	lockSuffix     = ".lock"
)

// ErrLockHeld matches any failure to obtain a lockfile in time.
var ErrLockHeld = err.New(pkgName, err.CodeLockFailed, "", "lock is held by another process", nil)

// LockFile is an exclusive "<target>.lock" file created with O_EXCL.
//
// The lock doubles as a staging file: data written to it can be committed
// over the target with a rename, which is how refs and the index are
// replaced without ever exposing a partial write.
type LockFile struct {
	target    string
	path      string
	file      *os.File
	committed bool
}

// AcquireLock creates target+".lock", retrying until timeout elapses.
// A zero timeout tries exactly once.
func AcquireLock(target string, timeout time.Duration) (*LockFile, error) {
	lockPath := target + lockSuffix
	deadline := time.Now().Add(timeout)

	for {
		f, e := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if e == nil {
			return &LockFile{target: target, path: lockPath, file: f}, nil
		}
		if !os.IsExist(e) {
			return nil, err.New(pkgName, err.CodeLockFailed, "acquire_lock", lockPath, e)
		}
		if !time.Now().Before(deadline) {
			return nil, err.New(pkgName, err.CodeLockFailed, "acquire_lock", lockPath, ErrLockHeld)
		}
		time.Sleep(lockRetryDelay)
	}
}

// Path returns the lock file path
func (l *LockFile) Path() string {
	return l.path
}

// Write appends data to the lock file.
func (l *LockFile) Write(data []byte) error {
	if _, e := l.file.Write(data); e != nil {
		return fmt.Errorf("write %s: %w", l.path, e)
	}
	return nil
}

// Commit syncs the lock file and renames it over the target.
// After Commit the lock is gone and Release is a no-op.
func (l *LockFile) Commit() error {
	if e := l.file.Sync(); e != nil {
		return fmt.Errorf("sync %s: %w", l.path, e)
	}
	if e := l.file.Close(); e != nil {
		return fmt.Errorf("close %s: %w", l.path, e)
	}
	if e := os.Rename(l.path, l.target); e != nil {
		return fmt.Errorf("rename %s: %w", l.path, e)
	}
	l.committed = true
	return nil
}

// Release closes and removes the lock file unless it was committed.
func (l *LockFile) Release() error {
	if l.committed {
		return nil
	}
	l.file.Close()
	if e := os.Remove(l.path); e != nil && !os.IsNotExist(e) {
		return fmt.Errorf("remove lock file: %w", e)
	}
	return nil
}
