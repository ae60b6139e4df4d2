package api

import (
	"time"

	"github.com/jmcleod/racetrack/race"
)

// SessionStore abstracts session CRUD so that sessions can be stored
// in-memory (default) or in persistent backing storage.
type SessionStore interface {
	// Get retrieves a session by id. Returns false if the session does not
	// exist or has exceeded the idle timeout.
	Get(id string) (Session, bool)
	// Put creates or updates the session with the given id.
	Put(id string, session Session) error
	// Delete removes a session by id.
	Delete(id string)
}

// Session holds the server-side state of a guest session.
type Session struct {
	UserID         string     `json:"user_id"`
	UserName       string     `json:"user_name"`
	Race           race.Timer `json:"race"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
}

func idleExpired(s Session, idleTimeout time.Duration, now time.Time) bool {
	return idleTimeout > 0 && now.Sub(s.LastAccessedAt) > idleTimeout
}
