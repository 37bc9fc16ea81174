package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the SQLite connection and hands out repositories.
type Store struct {
	db   *sql.DB
	drv  *entsql.Driver
	seq  *sequenceCounter
	opts Options

	// statsMu serializes stats transactions within the process.
	statsMu sync.Mutex
}

// Options tunes store behavior.
type Options struct {
	// UserEmail identifies the local learner returned by CurrentUser.
	UserEmail string
}

// DefaultUserEmail is used when no learner email is configured.
const DefaultUserEmail = "learner@tutorly.local"

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and migrates the schema.
func Open(dsn string) (*Store, error) {
	return OpenWithOptions(dsn, Options{})
}

// OpenWithOptions is Open with explicit options.
func OpenWithOptions(dsn string, opts Options) (*Store, error) {
	if opts.UserEmail == "" {
		opts.UserEmail = DefaultUserEmail
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		drv.Close()
		return nil, err
	}

	return &Store{db: db, drv: drv, seq: seq, opts: opts}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// EntityRepo returns the generic collection store.
func (s *Store) EntityRepo() EntityRepo {
	return &entityRepo{db: s.db}
}

// UserRepo returns the current-user accessor.
func (s *Store) UserRepo() UserRepo {
	return &userRepo{db: s.db, email: s.opts.UserEmail, statsMu: &s.statsMu}
}

// EventRepo returns the append-only event log.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db, seq: s.seq}
}

// builder returns an ent SQL builder for the SQLite dialect.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. TUTORLY_DB environment variable
// 2. $XDG_DATA_HOME/tutorly/tutorly.db
// 3. ~/.local/share/tutorly/tutorly.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("TUTORLY_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "tutorly", "tutorly.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
