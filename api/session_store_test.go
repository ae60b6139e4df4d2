package api

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/racetrack/storage"
	"github.com/jmcleod/racetrack/storage/bbolt"
	"github.com/jmcleod/racetrack/storage/memory"
)

var storeEpoch = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

// sessionStoreTests runs the common suite against any SessionStore implementation.
func sessionStoreTests(t *testing.T, store SessionStore, clock *clockwork.FakeClock) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		s := Session{UserID: "user-1", UserName: "Guest_abc123", LastAccessedAt: clock.Now()}
		s.Race.Start("race-1", clock.Now())
		require.NoError(t, store.Put("sid-1", s))

		got, ok := store.Get("sid-1")
		require.True(t, ok)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, "Guest_abc123", got.UserName)
		assert.Equal(t, "race-1", got.Race.ActiveID())
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, ok := store.Get("no-such-session")
		assert.False(t, ok)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Put("sid-del", Session{UserID: "u", LastAccessedAt: clock.Now()}))
		store.Delete("sid-del")
		_, ok := store.Get("sid-del")
		assert.False(t, ok)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		assert.NotPanics(t, func() { store.Delete("never-existed") })
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Put("sid-ow", Session{UserID: "u", UserName: "first", LastAccessedAt: clock.Now()}))
		require.NoError(t, store.Put("sid-ow", Session{UserID: "u", UserName: "second", LastAccessedAt: clock.Now()}))
		got, ok := store.Get("sid-ow")
		require.True(t, ok)
		assert.Equal(t, "second", got.UserName)
	})

	t.Run("PausedRaceRoundTrip", func(t *testing.T) {
		s := Session{UserID: "u", LastAccessedAt: clock.Now()}
		s.Race.Start("race-p", clock.Now().Add(-5*time.Second))
		require.NoError(t, s.Race.Pause("race-p", clock.Now()))
		require.NoError(t, store.Put("sid-p", s))

		got, ok := store.Get("sid-p")
		require.True(t, ok)
		assert.Equal(t, s.Race.State(), got.Race.State())
	})

	t.Run("IdleTimeout", func(t *testing.T) {
		require.NoError(t, store.Put("sid-idle", Session{UserID: "u", LastAccessedAt: clock.Now().Add(-time.Hour)}))
		_, ok := store.Get("sid-idle")
		assert.False(t, ok, "expected idle session to be rejected")
	})
}

func TestMemorySessionStore(t *testing.T) {
	clock := clockwork.NewFakeClockAt(storeEpoch)
	sessionStoreTests(t, NewMemorySessionStore(30*time.Minute, clock), clock)

	t.Run("IdleTimeoutDisabled", func(t *testing.T) {
		s := NewMemorySessionStore(0, clock)
		require.NoError(t, s.Put("sid", Session{UserID: "u", LastAccessedAt: clock.Now().Add(-24 * time.Hour)}))
		_, ok := s.Get("sid")
		assert.True(t, ok)
	})

	t.Run("ExpiresAsClockAdvances", func(t *testing.T) {
		c := clockwork.NewFakeClockAt(storeEpoch)
		s := NewMemorySessionStore(time.Minute, c)
		require.NoError(t, s.Put("sid", Session{UserID: "u", LastAccessedAt: c.Now()}))
		c.Advance(59 * time.Second)
		_, ok := s.Get("sid")
		assert.True(t, ok)
		c.Advance(2 * time.Second)
		_, ok = s.Get("sid")
		assert.False(t, ok)
	})
}

func TestPersistentSessionStore(t *testing.T) {
	secret := []byte("totally-a-secret")
	clock := clockwork.NewFakeClockAt(storeEpoch)
	store, err := NewPersistentSessionStore(memory.NewKV(), secret, 30*time.Minute, clock)
	require.NoError(t, err)
	defer store.Close()

	sessionStoreTests(t, store, clock)

	t.Run("EmptySecret", func(t *testing.T) {
		_, err := NewPersistentSessionStore(memory.NewKV(), nil, time.Minute, clock)
		assert.Error(t, err)
	})

	t.Run("SealedAtRest", func(t *testing.T) {
		kv := memory.NewKV()
		s, err := NewPersistentSessionStore(kv, secret, 0, clock)
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.Put("sid", Session{UserID: "user-secret", UserName: "Visible?"}))
		env, err := kv.Get(sessionBucket, "sid")
		require.NoError(t, err)
		assert.Equal(t, "aes256gcm", env.Scheme)
		assert.NotContains(t, string(env.Ciphertext), "Visible?")

		// An envelope moved to another id fails authentication.
		require.NoError(t, kv.Put(sessionBucket, "other", env))
		_, ok := s.Get("other")
		assert.False(t, ok)
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		kv, err := bbolt.Open(filepath.Join(t.TempDir(), "sessions.db"), nil)
		require.NoError(t, err)
		defer kv.Close()

		s1, err := NewPersistentSessionStore(kv, secret, 30*time.Minute, clock)
		require.NoError(t, err)
		require.NoError(t, s1.Put("sid-persist", Session{UserID: "u-persist", LastAccessedAt: clock.Now()}))
		s1.Close()

		s2, err := NewPersistentSessionStore(kv, secret, 30*time.Minute, clock)
		require.NoError(t, err)
		defer s2.Close()
		got, ok := s2.Get("sid-persist")
		require.True(t, ok)
		assert.Equal(t, "u-persist", got.UserID)

		s3, err := NewPersistentSessionStore(kv, []byte("rotated-secret"), 30*time.Minute, clock)
		require.NoError(t, err)
		defer s3.Close()
		_, ok = s3.Get("sid-persist")
		assert.False(t, ok, "a rotated secret must not open old sessions")
	})

	t.Run("SweepExpired", func(t *testing.T) {
		kv := memory.NewKV()
		c := clockwork.NewFakeClockAt(storeEpoch)
		s, err := NewPersistentSessionStore(kv, secret, 30*time.Minute, c)
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.Put("sid-stale", Session{UserID: "u", LastAccessedAt: c.Now().Add(-time.Hour)}))
		require.NoError(t, s.Put("sid-fresh", Session{UserID: "u", LastAccessedAt: c.Now()}))
		require.NoError(t, kv.Put(sessionBucket, "sid-corrupt", &storage.Envelope{Ver: 1, Scheme: "aes256gcm", Nonce: make([]byte, 12), Ciphertext: []byte("junk")}))

		assert.Equal(t, 2, s.sweepExpired())

		ids, err := kv.List(sessionBucket)
		require.NoError(t, err)
		assert.Equal(t, []string{"sid-fresh"}, ids)
	})
}
