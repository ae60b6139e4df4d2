// Package postgres implements storage.Leaderboard backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/jmcleod/racetrack/storage"
)

// Store implements storage.Leaderboard backed by PostgreSQL.
type Store struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

var _ storage.Leaderboard = (*Store)(nil)

// NewStore returns a Leaderboard backed by the given pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, clock: clockwork.NewRealClock()}
}

// Open creates a connection pool from a DSN string, ensures the schema
// exists, and returns a new Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewStore(pool), nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) InsertRace(ctx context.Context, r storage.Race) (storage.Race, error) {
	return insertRace(ctx, s.pool, s.clock, r)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertRace(ctx context.Context, q querier, clock clockwork.Clock, r storage.Race) (storage.Race, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = clock.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC().Truncate(time.Millisecond)
	err := q.QueryRow(ctx,
		`INSERT INTO races (name, mode, time, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		r.Name, r.Mode, r.Time, r.CreatedAt).Scan(&r.ID)
	if err != nil {
		return storage.Race{}, fmt.Errorf("inserting race: %w", err)
	}
	return r, nil
}

func (s *Store) Races(ctx context.Context, q storage.Query) ([]storage.Race, error) {
	limit, offset := q.Window()
	// LIMIT NULL is LIMIT ALL.
	var limitArg any
	if limit >= 0 {
		limitArg = limit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, mode, time, created_at FROM races
		 WHERE mode = $1 ORDER BY `+q.OrderBy()+` LIMIT $2 OFFSET $3`,
		q.Mode, limitArg, offset)
	if err != nil {
		return nil, fmt.Errorf("querying races: %w", err)
	}
	races, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.Race, error) {
		var r storage.Race
		err := row.Scan(&r.ID, &r.Name, &r.Mode, &r.Time, &r.CreatedAt)
		r.CreatedAt = r.CreatedAt.UTC()
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning races: %w", err)
	}
	return races, nil
}

func (s *Store) Counters(ctx context.Context) ([]storage.Counter, error) {
	rows, err := s.pool.Query(ctx, `SELECT mode, count FROM counters ORDER BY mode`)
	if err != nil {
		return nil, fmt.Errorf("querying counters: %w", err)
	}
	counters, err := pgx.CollectRows(rows, pgx.RowToStructByPos[storage.Counter])
	if err != nil {
		return nil, fmt.Errorf("scanning counters: %w", err)
	}
	return counters, nil
}

func (s *Store) Counter(ctx context.Context, mode string) (storage.Counter, error) {
	c := storage.Counter{Mode: mode}
	err := s.pool.QueryRow(ctx, `SELECT count FROM counters WHERE mode = $1`, mode).Scan(&c.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Counter{}, fmt.Errorf("counter %q: %w", mode, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Counter{}, fmt.Errorf("reading counter: %w", err)
	}
	return c, nil
}

func (s *Store) IncrementCounter(ctx context.Context, mode string) (storage.Counter, error) {
	c := storage.Counter{Mode: mode}
	err := s.pool.QueryRow(ctx,
		`UPDATE counters SET count = count + 1 WHERE mode = $1 RETURNING count`, mode).Scan(&c.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Counter{}, fmt.Errorf("counter %q: %w", mode, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Counter{}, fmt.Errorf("incrementing counter: %w", err)
	}
	return c, nil
}

func (s *Store) Seed(ctx context.Context, seed storage.Seed) (bool, error) {
	var seeded bool
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE counters IN EXCLUSIVE MODE`); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM counters`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, mode := range seed.Counters {
			if _, err := tx.Exec(ctx, `INSERT INTO counters (mode, count) VALUES ($1, 0)`, mode); err != nil {
				return err
			}
		}
		for _, r := range seed.Races {
			if _, err := insertRace(ctx, tx, s.clock, r); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seeding: %w", err)
	}
	return seeded, nil
}
