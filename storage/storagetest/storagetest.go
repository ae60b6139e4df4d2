// Package storagetest provides a conformance suite shared by every
// storage.Leaderboard implementation.
package storagetest

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/racetrack/storage"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) storage.Leaderboard

var testSeed = storage.Seed{
	Counters: []string{"normal", "encore"},
}

// Run exercises every Leaderboard operation against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("SeedOnce", func(t *testing.T) {
		s := open(t, newStore)
		ctx := t.Context()
		seed := storage.Seed{
			Counters: []string{"normal-main", "encore-main"},
			Races: []storage.Race{
				{Name: "MACHINE", Mode: "normal", Time: 5999999},
				{Name: "MACHINE", Mode: "encore", Time: 5999999},
			},
		}

		seeded, err := s.Seed(ctx, seed)
		require.NoError(t, err)
		assert.True(t, seeded)

		seeded, err = s.Seed(ctx, seed)
		require.NoError(t, err)
		assert.False(t, seeded, "second boot must not reseed")

		counters, err := s.Counters(ctx)
		require.NoError(t, err)
		assert.Equal(t, []storage.Counter{{Mode: "encore-main"}, {Mode: "normal-main"}}, counters)

		races, err := s.Races(ctx, query("normal", "id", storage.Asc, 0, 100))
		require.NoError(t, err)
		require.Len(t, races, 1)
		assert.Equal(t, "MACHINE", races[0].Name)
		assert.Equal(t, int64(5999999), races[0].Time)
	})

	t.Run("CounterLookup", func(t *testing.T) {
		s := seeded(t, newStore)
		ctx := t.Context()

		c, err := s.Counter(ctx, "normal")
		require.NoError(t, err)
		assert.Equal(t, storage.Counter{Mode: "normal", Count: 0}, c)

		_, err = s.Counter(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("IncrementCounter", func(t *testing.T) {
		s := seeded(t, newStore)
		ctx := t.Context()

		for i := int64(1); i <= 5; i++ {
			c, err := s.IncrementCounter(ctx, "encore")
			require.NoError(t, err)
			assert.Equal(t, i, c.Count)

			stored, err := s.Counter(ctx, "encore")
			require.NoError(t, err)
			assert.Equal(t, c, stored)
		}

		other, err := s.Counter(ctx, "normal")
		require.NoError(t, err)
		assert.Zero(t, other.Count)
	})

	t.Run("IncrementUnknownCounter", func(t *testing.T) {
		s := seeded(t, newStore)
		ctx := t.Context()

		_, err := s.IncrementCounter(ctx, "unknown")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		counters, err := s.Counters(ctx)
		require.NoError(t, err)
		assert.Len(t, counters, 2, "increment must not create counters")
	})

	t.Run("InsertRace", func(t *testing.T) {
		s := seeded(t, newStore)
		ctx := t.Context()
		at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

		r1, err := s.InsertRace(ctx, storage.Race{Name: "a", Mode: "normal", Time: 100, CreatedAt: at})
		require.NoError(t, err)
		r2, err := s.InsertRace(ctx, storage.Race{Name: "b", Mode: "normal", Time: 200})
		require.NoError(t, err)

		assert.Positive(t, r1.ID)
		assert.Greater(t, r2.ID, r1.ID)
		assert.True(t, at.Equal(r1.CreatedAt))
		assert.False(t, r2.CreatedAt.IsZero())

		races, err := s.Races(ctx, query("normal", "id", storage.Asc, 0, 10))
		require.NoError(t, err)
		require.Len(t, races, 2)
		assert.Equal(t, r1.ID, races[0].ID)
		assert.Equal(t, "a", races[0].Name)
		assert.True(t, at.Equal(races[0].CreatedAt))
	})

	t.Run("CreatedAtMillisecondPrecision", func(t *testing.T) {
		s := seeded(t, newStore)
		ctx := t.Context()
		at := time.Date(2025, 5, 1, 10, 0, 0, 123456789, time.FixedZone("X", 3600))
		want := time.Date(2025, 5, 1, 9, 0, 0, 123000000, time.UTC)

		r, err := s.InsertRace(ctx, storage.Race{Name: "a", Mode: "normal", Time: 100, CreatedAt: at})
		require.NoError(t, err)
		assert.Equal(t, want, r.CreatedAt)

		races, err := s.Races(ctx, query("normal", "id", storage.Asc, 0, 10))
		require.NoError(t, err)
		require.Len(t, races, 1)
		assert.True(t, want.Equal(races[0].CreatedAt))
		assert.Equal(t, r.CreatedAt.UnixMilli(), races[0].CreatedAt.UnixMilli())
	})

	t.Run("SortByTime", func(t *testing.T) {
		s := seeded(t, newStore)
		ctx := t.Context()
		insertShuffled(t, s, "normal", 50)

		asc, err := s.Races(ctx, query("normal", "time", storage.Asc, 0, 10))
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, times(asc))

		desc, err := s.Races(ctx, query("normal", "time", storage.Desc, 0, 10))
		require.NoError(t, err)
		assert.Equal(t, []int64{50, 49, 48, 47, 46, 45, 44, 43, 42, 41}, times(desc))
	})

	t.Run("ModeFilterIsExact", func(t *testing.T) {
		s := seeded(t, newStore)
		ctx := t.Context()
		insertShuffled(t, s, "normal", 3)
		insertShuffled(t, s, "encore", 2)
		insertShuffled(t, s, "", 1)

		for mode, want := range map[string]int{"normal": 3, "encore": 2, "": 1, "norm": 0} {
			races, err := s.Races(ctx, query(mode, "id", storage.Asc, 0, 100))
			require.NoError(t, err)
			assert.Len(t, races, want, "mode %q", mode)
			for _, r := range races {
				assert.Equal(t, mode, r.Mode)
			}
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		s := seeded(t, newStore)
		ctx := t.Context()
		insertShuffled(t, s, "normal", 15)
		// Duplicate times exercise the id tiebreak.
		insertShuffled(t, s, "normal", 5)

		all, err := s.Races(ctx, query("normal", "time", storage.Asc, 0, 1000))
		require.NoError(t, err)
		require.Len(t, all, 20)

		for offset := range all {
			page, err := s.Races(ctx, query("normal", "time", storage.Asc, offset, 1))
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, all[offset].ID, page[0].ID, "offset %d", offset)
		}

		page, err := s.Races(ctx, query("normal", "time", storage.Asc, 0, 7))
		require.NoError(t, err)
		assert.Len(t, page, 7)

		again, err := s.Races(ctx, query("normal", "time", storage.Asc, 0, 7))
		require.NoError(t, err)
		assert.Equal(t, page, again)

		past, err := s.Races(ctx, query("normal", "time", storage.Asc, 100, 10))
		require.NoError(t, err)
		assert.Empty(t, past)
	})

	t.Run("UncheckedWindow", func(t *testing.T) {
		s := seeded(t, newStore)
		ctx := t.Context()
		insertShuffled(t, s, "normal", 12)

		unlimited, err := s.Races(ctx, query("normal", "id", storage.Asc, 0, -1))
		require.NoError(t, err)
		assert.Len(t, unlimited, 12)

		negOffset, err := s.Races(ctx, query("normal", "id", storage.Asc, -3, 5))
		require.NoError(t, err)
		assert.Len(t, negOffset, 5)

		none, err := s.Races(ctx, query("normal", "id", storage.Asc, 0, 0))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("UnknownSortColumnFallsBack", func(t *testing.T) {
		s := seeded(t, newStore)
		ctx := t.Context()
		insertShuffled(t, s, "normal", 5)

		races, err := s.Races(ctx, query("normal", "name; DROP TABLE races", storage.Asc, 0, 10))
		require.NoError(t, err)
		require.Len(t, races, 5)
		for i := 1; i < len(races); i++ {
			assert.Less(t, races[i-1].ID, races[i].ID)
		}
	})
}

func open(t *testing.T, newStore Factory) storage.Leaderboard {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seeded(t *testing.T, newStore Factory) storage.Leaderboard {
	t.Helper()
	s := open(t, newStore)
	_, err := s.Seed(context.Background(), testSeed)
	require.NoError(t, err)
	return s
}

func query(mode, sortBy string, dir storage.Direction, offset, limit int) storage.Query {
	return storage.Query{Mode: mode, SortBy: sortBy, Sort: dir, Offset: offset, Limit: limit}
}

// insertShuffled inserts n races of mode with times 1..n in random order.
func insertShuffled(t *testing.T, s storage.Leaderboard, mode string, n int) {
	t.Helper()
	rng := rand.New(rand.NewPCG(uint64(n), 42))
	order := rng.Perm(n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range order {
		_, err := s.InsertRace(context.Background(), storage.Race{
			Name:      "racer",
			Mode:      mode,
			Time:      int64(p + 1),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
}

func times(races []storage.Race) []int64 {
	out := make([]int64, len(races))
	for i, r := range races {
		out[i] = r.Time
	}
	return out
}
