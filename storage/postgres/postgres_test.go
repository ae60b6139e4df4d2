package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/racetrack/storage"
	"github.com/jmcleod/racetrack/storage/storagetest"
)

func newTestStore(t *testing.T) storage.Leaderboard {
	t.Helper()
	dsn := os.Getenv("RACETRACK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RACETRACK_TEST_POSTGRES_DSN not set; skipping PostgreSQL tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "could not connect to postgres")
	require.NoError(t, EnsureSchema(ctx, pool))

	// Clean tables for test isolation.
	_, err = pool.Exec(ctx, "TRUNCATE races, counters RESTART IDENTITY")
	require.NoError(t, err)

	return NewStore(pool)
}

func TestPostgresLeaderboard(t *testing.T) {
	storagetest.Run(t, newTestStore)
}
