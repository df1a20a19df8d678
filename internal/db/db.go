// Package db is the remote relational store used in signed-in mode.
//
// Every row carries an owner column. The only way to read or write rows is
// through a Scope obtained from ForOwner, and every statement a Scope runs is
// filtered or stamped with that owner, so one owner can never reach another
// owner's rows.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tgienger/seotrack/internal/clock"
	seoerrors "github.com/tgienger/seotrack/internal/errors"
)

//go:embed schema.sql
var schema string

// DefaultBusyTimeout is how long sqlite waits on a locked database
const DefaultBusyTimeout = 5 * time.Second

// DB wraps the database connection
type DB struct {
	conn  *sql.DB
	clock clock.Clock
	path  string
}

// Option configures a DB
type Option func(*DB)

// WithClock sets the clock used for created_at stamps
func WithClock(c clock.Clock) Option {
	return func(db *DB) {
		db.clock = c
	}
}

// New opens (creating if needed) the database at path and initializes the schema
func New(ctx context.Context, path string, busyTimeout time.Duration, opts ...Option) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path %w", seoerrors.ErrEmptyValue)
	}
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_foreign_keys=on", path, busyTimeout.Milliseconds())
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite3: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	// Initialize schema
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	db := &DB{conn: conn, clock: clock.RealClock{}, path: path}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// DefaultPath returns the database location inside dataDir
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "seotrack.db")
}

// Path returns the database file location
func (db *DB) Path() string {
	return db.path
}

// Close closes the underlying connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// ForOwner returns the data access scope for one owner
func (db *DB) ForOwner(owner string) (*Scope, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, fmt.Errorf("owner %w", seoerrors.ErrEmptyValue)
	}
	return &Scope{db: db, owner: owner}, nil
}

// Scope runs every statement on behalf of a single owner
type Scope struct {
	db    *DB
	owner string
}

// Owner returns the identity the scope is bound to
func (s *Scope) Owner() string {
	return s.owner
}

func (s *Scope) now() time.Time {
	return s.db.clock.Now().UTC()
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// requireAffected turns a zero-row write into ErrNotFound
func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", what, id, seoerrors.ErrNotFound)
	}
	return nil
}
