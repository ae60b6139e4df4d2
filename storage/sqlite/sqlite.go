// Package sqlite implements storage.Leaderboard on an embedded SQLite
// database (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"

	"github.com/jmcleod/racetrack/storage"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// timeLayout is fixed-width so created_at sorts correctly as TEXT.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Store implements storage.Leaderboard on SQLite.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

var _ storage.Leaderboard = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp races inserted without CreatedAt.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serialises writers and keeps :memory: a single database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS races (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  mode TEXT NOT NULL,
  time INTEGER NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS races_mode_time_idx ON races (mode, time);
CREATE TABLE IF NOT EXISTS counters (
  mode TEXT PRIMARY KEY,
  count INTEGER NOT NULL DEFAULT 0
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) InsertRace(ctx context.Context, r storage.Race) (storage.Race, error) {
	return s.insertRace(ctx, s.db, r)
}

func (s *Store) insertRace(ctx context.Context, db execer, r storage.Race) (storage.Race, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.clock.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC().Truncate(time.Millisecond)
	res, err := db.ExecContext(ctx,
		`INSERT INTO races (name, mode, time, created_at) VALUES (?, ?, ?, ?)`,
		r.Name, r.Mode, r.Time, r.CreatedAt.Format(timeLayout))
	if err != nil {
		return storage.Race{}, fmt.Errorf("insert race: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return storage.Race{}, fmt.Errorf("insert race: %w", err)
	}
	return r, nil
}

func (s *Store) Races(ctx context.Context, q storage.Query) ([]storage.Race, error) {
	limit, offset := q.Window()
	// LIMIT -1 is unlimited in SQLite.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, mode, time, created_at FROM races
		 WHERE mode = ? ORDER BY `+q.OrderBy()+` LIMIT ? OFFSET ?`,
		q.Mode, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query races: %w", err)
	}
	defer rows.Close()

	races := []storage.Race{}
	for rows.Next() {
		var (
			r         storage.Race
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Mode, &r.Time, &createdAt); err != nil {
			return nil, fmt.Errorf("scan race: %w", err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("race %d created_at: %w", r.ID, err)
		}
		races = append(races, r)
	}
	return races, rows.Err()
}

func (s *Store) Counters(ctx context.Context) ([]storage.Counter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mode, count FROM counters ORDER BY mode`)
	if err != nil {
		return nil, fmt.Errorf("query counters: %w", err)
	}
	defer rows.Close()

	counters := []storage.Counter{}
	for rows.Next() {
		var c storage.Counter
		if err := rows.Scan(&c.Mode, &c.Count); err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

func (s *Store) Counter(ctx context.Context, mode string) (storage.Counter, error) {
	c := storage.Counter{Mode: mode}
	err := s.db.QueryRowContext(ctx, `SELECT count FROM counters WHERE mode = ?`, mode).Scan(&c.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Counter{}, fmt.Errorf("counter %q: %w", mode, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Counter{}, fmt.Errorf("read counter: %w", err)
	}
	return c, nil
}

func (s *Store) IncrementCounter(ctx context.Context, mode string) (storage.Counter, error) {
	c := storage.Counter{Mode: mode}
	err := s.db.QueryRowContext(ctx,
		`UPDATE counters SET count = count + 1 WHERE mode = ? RETURNING count`, mode).Scan(&c.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Counter{}, fmt.Errorf("counter %q: %w", mode, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Counter{}, fmt.Errorf("increment counter: %w", err)
	}
	return c, nil
}

func (s *Store) Seed(ctx context.Context, seed storage.Seed) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM counters`).Scan(&n); err != nil {
		return false, fmt.Errorf("count counters: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	for _, mode := range seed.Counters {
		if _, err := tx.ExecContext(ctx, `INSERT INTO counters (mode, count) VALUES (?, 0)`, mode); err != nil {
			return false, fmt.Errorf("seed counter %q: %w", mode, err)
		}
	}
	for _, r := range seed.Races {
		if _, err := s.insertRace(ctx, tx, r); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}
