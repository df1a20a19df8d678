// Package errors provides the sentinel errors shared across seotrack.
//
// Callers categorize failures with errors.Is. This package must not import
// any other internal package.
package errors

import "errors"

// Sentinel errors for error categorization.
var (
	// ErrInvalidInput indicates a caller-supplied value failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrNotFound indicates the requested row or object does not exist
	// for the calling owner.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates an attempt to touch data outside the caller's
	// owner namespace.
	ErrForbidden = errors.New("forbidden")

	// ErrPathTraversal indicates an attempt to escape a storage root.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrLockTimeout indicates a file lock could not be acquired in time.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrRemoteFetch indicates the full remote snapshot could not be loaded.
	ErrRemoteFetch = errors.New("remote fetch failed")

	// ErrProjectCreate indicates a project could not be created together
	// with its seeded tasks.
	ErrProjectCreate = errors.New("project creation failed")

	// ErrAttachmentUpload indicates an attachment could not be stored.
	ErrAttachmentUpload = errors.New("attachment upload failed")

	// ErrAttachmentTooLarge indicates an attachment exceeded the size limit.
	ErrAttachmentTooLarge = errors.New("attachment too large")

	// ErrGuestUnavailable indicates the guest blob could not be read, so it
	// must not be written either.
	ErrGuestUnavailable = errors.New("guest data unavailable")

	// ErrNotSignedIn indicates an operation that needs an identity ran in
	// guest mode.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrConfigInvalid indicates an invalid configuration value.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrInvalidOutputFormat indicates an unknown --output value.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrUserAborted indicates the user cancelled an interactive prompt.
	ErrUserAborted = errors.New("user aborted")
)
