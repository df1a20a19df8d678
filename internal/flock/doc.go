// Package flock provides cross-platform exclusive file locks.
//
// Usage:
//
//	f, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
//	if err := flock.Exclusive(f.Fd()); errors.Is(err, flock.ErrHeld) {
//	    // lock held elsewhere, retry later
//	}
//	defer flock.Unlock(f.Fd())
package flock

import "errors"

// ErrHeld reports that another descriptor owns the lock. Any other error
// from Exclusive means the lock cannot be taken at all.
var ErrHeld = errors.New("lock held elsewhere")
