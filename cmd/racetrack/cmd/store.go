package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/jmcleod/racetrack/api"
	"github.com/jmcleod/racetrack/internal/config"
	"github.com/jmcleod/racetrack/storage"
	bboltstorage "github.com/jmcleod/racetrack/storage/bbolt"
	"github.com/jmcleod/racetrack/storage/memory"
	"github.com/jmcleod/racetrack/storage/postgres"
	"github.com/jmcleod/racetrack/storage/sqlite"
)

// openLeaderboard opens the store selected by cfg.Store.Driver.
func openLeaderboard(ctx context.Context, cfg *config.Config, clock clockwork.Clock) (storage.Leaderboard, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.NewLeaderboard(memory.WithClock(clock)), nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath(), sqlite.WithClock(clock))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// seedLeaderboard writes the configured seed into an empty store.
func seedLeaderboard(ctx context.Context, lb storage.Leaderboard, cfg *config.Config, logger zerolog.Logger) error {
	seed := cfg.SeedData()
	seeded, err := lb.Seed(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}
	if seeded {
		logger.Info().
			Int("counters", len(seed.Counters)).
			Int("races", len(seed.Races)).
			Msg("seeded empty store")
	}
	return nil
}

// openSessions returns the session store and a function releasing it.
// Sessions are kept in memory when persistence is off or the leaderboard
// itself is in memory.
func openSessions(cfg *config.Config, clock clockwork.Clock) (api.SessionStore, func() error, error) {
	if !cfg.Session.Persist || cfg.Store.Driver == config.DriverMemory {
		return api.NewMemorySessionStore(cfg.Session.IdleTimeout, clock), func() error { return nil }, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	kv, err := bboltstorage.Open(cfg.SessionsPath(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session storage: %w", err)
	}
	sessions, err := api.NewPersistentSessionStore(kv, []byte(cfg.Session.Secret), cfg.Session.IdleTimeout, clock)
	if err != nil {
		return nil, nil, errors.Join(err, kv.Close())
	}
	return sessions, func() error {
		sessions.Close()
		return kv.Close()
	}, nil
}
