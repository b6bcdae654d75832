package langcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// Store persists language detection results in a SQLite database keyed by
// file digest, so re-running a pipeline over the same files skips the
// expensive speech model calls. Writes take a file lock so concurrent
// vpipe processes sharing a cache directory do not collide.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the detection database inside dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, "detections.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:   db,
		path: dbPath,
		lock: flock.New(dbPath + ".lock"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS detections (
    digest     TEXT NOT NULL,
    track      INTEGER NOT NULL,
    op         TEXT NOT NULL,
    value      TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (digest, track, op)
)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init detection schema: %w", err)
	}
	return nil
}

// Get returns the cached value for a digest, track, and operation. A miss
// reports ok false with no error.
func (s *Store) Get(ctx context.Context, digest string, track int, op string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT value FROM detections WHERE digest = ? AND track = ? AND op = ?`,
		digest, track, op)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("detection cache read: %w", err)
	}
	return value, true, nil
}

// Put stores or replaces a detection result.
func (s *Store) Put(ctx context.Context, digest string, track int, op, value string) error {
	if s == nil || s.db == nil {
		return nil
	}
	locked, err := s.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("detection cache lock: %w", err)
	}
	if !locked {
		return errors.New("detection cache lock: not acquired")
	}
	defer func() { _ = s.lock.Unlock() }()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO detections (digest, track, op, value, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (digest, track, op) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`,
		digest, track, op, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("detection cache write: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
