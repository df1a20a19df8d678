// Package fsutil holds the file helpers shared by the on-disk stores:
// atomic whole-file writes and lock-file guarded sections.
package fsutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/flock"
)

// Permission bits used for everything seotrack writes.
const (
	DirPerm  = 0o750
	FilePerm = 0o600
)

// DefaultLockTimeout bounds how long WithLock waits for a lock.
const DefaultLockTimeout = 5 * time.Second

const lockRetryInterval = 50 * time.Millisecond

// AtomicWrite writes data to path via a temp file, fsync and rename, so
// readers see either the old or the new content.
func AtomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// WithLock runs fn while holding an exclusive lock on lockPath. It polls
// until the lock is free, ctx is done or timeout elapses.
func WithLock(ctx context.Context, lockPath string, timeout time.Duration, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(lockPath), DirPerm); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, FilePerm) //#nosec G302,G304 -- lock file needs write access
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer func() { _ = f.Close() }()

	deadline := time.Now().Add(timeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := flock.Exclusive(f.Fd())
		if err == nil {
			break
		}
		if !errors.Is(err, flock.ErrHeld) {
			return fmt.Errorf("failed to lock %s: %w", filepath.Base(lockPath), err)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("failed to acquire lock %s: %w", filepath.Base(lockPath), seoerrors.ErrLockTimeout)
		}
		time.Sleep(lockRetryInterval)
	}
	defer func() { _ = flock.Unlock(f.Fd()) }()

	return fn()
}
