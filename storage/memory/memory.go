// Package memory provides thread-safe in-memory implementations of
// storage.Leaderboard and storage.KV.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jmcleod/racetrack/storage"
)

// Leaderboard is an in-memory storage.Leaderboard. Suitable for tests,
// demos and single-process use; contents are lost on exit.
type Leaderboard struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	nextID   int64
	races    []storage.Race
	counters map[string]int64
}

var _ storage.Leaderboard = (*Leaderboard)(nil)

// Option configures a Leaderboard.
type Option func(*Leaderboard)

// WithClock sets the clock used to stamp races inserted without CreatedAt.
func WithClock(c clockwork.Clock) Option {
	return func(l *Leaderboard) { l.clock = c }
}

// NewLeaderboard creates an empty Leaderboard.
func NewLeaderboard(opts ...Option) *Leaderboard {
	l := &Leaderboard{
		clock:    clockwork.NewRealClock(),
		counters: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Leaderboard) InsertRace(_ context.Context, r storage.Race) (storage.Race, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.insertLocked(r), nil
}

func (l *Leaderboard) insertLocked(r storage.Race) storage.Race {
	l.nextID++
	r.ID = l.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = l.clock.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC().Truncate(time.Millisecond)
	l.races = append(l.races, r)
	return r
}

func (l *Leaderboard) Races(_ context.Context, q storage.Query) ([]storage.Race, error) {
	l.mu.RLock()
	matched := make([]storage.Race, 0, len(l.races))
	for _, r := range l.races {
		if r.Mode == q.Mode {
			matched = append(matched, r)
		}
	}
	l.mu.RUnlock()

	col := q.Column()
	desc := q.Direction() == storage.Desc
	slices.SortFunc(matched, func(a, b storage.Race) int {
		c := compareColumn(col, a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})

	limit, offset := q.Window()
	if offset >= len(matched) {
		return []storage.Race{}, nil
	}
	matched = matched[offset:]
	if limit >= 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func compareColumn(col string, a, b storage.Race) int {
	switch col {
	case "mode":
		return strings.Compare(a.Mode, b.Mode)
	case "time":
		return cmp.Compare(a.Time, b.Time)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func (l *Leaderboard) Counters(_ context.Context) ([]storage.Counter, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]storage.Counter, 0, len(l.counters))
	for mode, count := range l.counters {
		out = append(out, storage.Counter{Mode: mode, Count: count})
	}
	slices.SortFunc(out, func(a, b storage.Counter) int { return strings.Compare(a.Mode, b.Mode) })
	return out, nil
}

func (l *Leaderboard) Counter(_ context.Context, mode string) (storage.Counter, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	count, ok := l.counters[mode]
	if !ok {
		return storage.Counter{}, storage.ErrNotFound
	}
	return storage.Counter{Mode: mode, Count: count}, nil
}

func (l *Leaderboard) IncrementCounter(_ context.Context, mode string) (storage.Counter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	count, ok := l.counters[mode]
	if !ok {
		return storage.Counter{}, storage.ErrNotFound
	}
	count++
	l.counters[mode] = count
	return storage.Counter{Mode: mode, Count: count}, nil
}

func (l *Leaderboard) Seed(_ context.Context, seed storage.Seed) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.counters) > 0 {
		return false, nil
	}
	for _, mode := range seed.Counters {
		l.counters[mode] = 0
	}
	for _, r := range seed.Races {
		l.insertLocked(r)
	}
	return true, nil
}

// Close is a no-op.
func (l *Leaderboard) Close() error { return nil }
