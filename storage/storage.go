// Package storage defines the leaderboard store for finished races and
// completion counters, and the sealed key-value store backing sessions.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a counter or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBucketNotFound is returned when a key-value bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
)

// Race is a finished, accepted race. Records are immutable once inserted.
type Race struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Mode      string    `json:"mode"`
	Time      int64     `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

// Counter is the completion tally of one game mode.
type Counter struct {
	Mode  string `json:"mode"`
	Count int64  `json:"count"`
}

// Seed is the data written on first boot.
type Seed struct {
	Counters []string
	Races    []Race
}

// Leaderboard persists finished races and per-mode counters.
type Leaderboard interface {
	// InsertRace stores r and returns it with its assigned ID. A zero
	// CreatedAt is replaced by the current time.
	InsertRace(ctx context.Context, r Race) (Race, error)
	// Races returns the page of races selected by q.
	Races(ctx context.Context, q Query) ([]Race, error)
	// Counters returns every counter ordered by mode.
	Counters(ctx context.Context) ([]Counter, error)
	// Counter returns the counter for mode, or ErrNotFound.
	Counter(ctx context.Context, mode string) (Counter, error)
	// IncrementCounter atomically adds one to the counter for mode and
	// returns the new value. Unknown modes yield ErrNotFound; counters are
	// never created implicitly.
	IncrementCounter(ctx context.Context, mode string) (Counter, error)
	// Seed writes seed when the store holds no counters yet and reports
	// whether it did.
	Seed(ctx context.Context, seed Seed) (bool, error)
	Close() error
}

// KV stores sealed envelopes by bucket and key.
type KV interface {
	Put(bucket, key string, envelope *Envelope) error
	Get(bucket, key string) (*Envelope, error)
	Delete(bucket, key string) error
	List(bucket string) ([]string, error)
}
