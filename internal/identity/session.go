// Package identity supplies the signed-in user, if any.
//
// Authentication itself happens elsewhere; seotrack only keeps the resulting
// user ID in a session file. `seotrack login` writes it, `logout` removes it,
// and a running TUI follows both through a Watcher.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/fsutil"
)

var validUserID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9@._+-]{0,127}$`)

// Session is the on-disk session record
type Session struct {
	UserID string `json:"user_id"`
}

// ValidateUserID rejects IDs that cannot name an owner namespace
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("user id %w", seoerrors.ErrEmptyValue)
	}
	if !validUserID.MatchString(userID) {
		return fmt.Errorf("user id %q: %w", userID, seoerrors.ErrInvalidInput)
	}
	return nil
}

// File is a session file
type File struct {
	path string
}

// NewFile returns the session file at path
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file location
func (f *File) Path() string {
	return f.path
}

// Read returns the signed-in user ID, or "" when there is no session.
// A corrupt or invalid session reads as signed out with an error.
func (f *File) Read() (string, error) {
	data, err := os.ReadFile(f.path) //#nosec G304 -- path comes from config
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", seoerrors.Wrap(err, "read session")
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return "", seoerrors.Wrap(err, "decode session")
	}
	userID := strings.TrimSpace(s.UserID)
	if userID == "" {
		return "", nil
	}
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	return userID, nil
}

// Write signs userID in
func (f *File) Write(userID string) error {
	userID = strings.TrimSpace(userID)
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(Session{UserID: userID}, "", "  ")
	if err != nil {
		return err
	}
	return seoerrors.Wrap(fsutil.AtomicWrite(f.path, data), "write session")
}

// Clear signs out. Clearing an absent session is not an error.
func (f *File) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return seoerrors.Wrap(err, "remove session")
	}
	return nil
}

// Resolve returns override when set, otherwise the session file's user
func Resolve(override string, f *File) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return override, ValidateUserID(override)
	}
	return f.Read()
}
