//go:build windows

package flock

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
)

// LockFileEx parameters: lock one byte, which covers the whole file for
// cooperating processes.
const (
	lockReserved  = 0
	lockBytesLow  = 1
	lockBytesHigh = 0
)

// Exclusive takes an exclusive lock on the file handle without blocking
func Exclusive(fd uintptr) error {
	err := windows.LockFileEx(
		windows.Handle(fd),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		&windows.Overlapped{},
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, windows.ERROR_LOCK_VIOLATION):
		return fmt.Errorf("handle %d: %w", fd, ErrHeld)
	default:
		return seoerrors.Wrapf(err, "lock handle %d", fd)
	}
}

// Unlock releases the lock on the file handle
func Unlock(fd uintptr) error {
	err := windows.UnlockFileEx(
		windows.Handle(fd),
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		&windows.Overlapped{},
	)
	return seoerrors.Wrapf(err, "unlock handle %d", fd)
}
