//go:build unix

package flock

import (
	"errors"
	"fmt"
	"syscall"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
)

// Exclusive takes an exclusive lock on fd without blocking
func Exclusive(fd uintptr) error {
	err := syscall.Flock(int(fd), syscall.LOCK_EX|syscall.LOCK_NB)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.EWOULDBLOCK):
		return fmt.Errorf("fd %d: %w", fd, ErrHeld)
	default:
		return seoerrors.Wrapf(err, "lock fd %d", fd)
	}
}

// Unlock releases the lock on fd
func Unlock(fd uintptr) error {
	return seoerrors.Wrapf(syscall.Flock(int(fd), syscall.LOCK_UN), "unlock fd %d", fd)
}
