// Package local persists the guest-mode snapshot as a single JSON blob on
// disk. The blob is always read and written whole.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/fsutil"
	"github.com/tgienger/seotrack/internal/models"
)

// DefaultKey is the namespace of the guest blob when none is configured
const DefaultKey = "seotrack-guest"

// guestDir keeps guest data apart from the cloud database and attachments
const guestDir = "guest"

var validKey = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

// Store reads and writes the guest blob
type Store struct {
	path        string
	lockTimeout time.Duration
	log         zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLockTimeout bounds how long Load and Save wait for the blob lock
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// New returns a Store keeping its blob at <dataDir>/guest/<key>.json
func New(dataDir, key string, log zerolog.Logger, opts ...Option) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("local store: data dir %w", seoerrors.ErrEmptyValue)
	}
	if key == "" {
		key = DefaultKey
	}
	if !validKey.MatchString(key) {
		return nil, fmt.Errorf("local store: key %q: %w", key, seoerrors.ErrInvalidInput)
	}
	s := &Store{
		path:        filepath.Join(dataDir, guestDir, key+".json"),
		lockTimeout: fsutil.DefaultLockTimeout,
		log:         log.With().Str("component", "local").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the location of the blob
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored snapshot. A missing or corrupt blob yields an empty
// snapshot and no error. A blob that exists but cannot be read right now
// (lock held, permissions, cancelled ctx) returns an error, and the caller
// must not overwrite it.
func (s *Store) Load(ctx context.Context) (models.Snapshot, error) {
	var data []byte
	err := fsutil.WithLock(ctx, s.lockPath(), s.lockTimeout, func() error {
		var readErr error
		data, readErr = os.ReadFile(s.path) //#nosec G304 -- path is built from validated key
		return readErr
	})
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug().Str("path", s.path).Msg("no guest data yet")
		return models.EmptySnapshot(), nil
	}
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("guest data unreadable")
		return models.EmptySnapshot(), seoerrors.Wrap(err, "failed to read guest data")
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("guest data corrupted, starting empty")
		return models.EmptySnapshot(), nil
	}
	return snap.Normalize(), nil
}

// Save overwrites the blob with snap
func (s *Store) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := json.MarshalIndent(snap.Normalize(), "", "  ")
	if err != nil {
		return seoerrors.Wrap(err, "failed to encode guest data")
	}

	err = fsutil.WithLock(ctx, s.lockPath(), s.lockTimeout, func() error {
		return fsutil.AtomicWrite(s.path, data)
	})
	if err != nil {
		return seoerrors.Wrap(err, "failed to save guest data")
	}
	s.log.Debug().
		Int("projects", len(snap.Projects)).
		Int("tasks", len(snap.Tasks)).
		Int("history", len(snap.History)).
		Msg("guest data saved")
	return nil
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}
