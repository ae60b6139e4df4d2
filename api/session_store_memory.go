package api

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemorySessionStore is a thread-safe in-memory SessionStore.
// Sessions are lost on server restart.
type MemorySessionStore struct {
	mu          sync.RWMutex
	data        map[string]Session
	idleTimeout time.Duration
	clock       clockwork.Clock
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an in-memory session store.
// idleTimeout of 0 disables idle timeout checking. A nil clock uses the
// wall clock.
func NewMemorySessionStore(idleTimeout time.Duration, clock clockwork.Clock) *MemorySessionStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemorySessionStore{
		data:        make(map[string]Session),
		idleTimeout: idleTimeout,
		clock:       clock,
	}
}

func (s *MemorySessionStore) Get(id string) (Session, bool) {
	s.mu.RLock()
	session, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if idleExpired(session, s.idleTimeout, s.clock.Now()) {
		s.Delete(id)
		return Session{}, false
	}
	return session, true
}

func (s *MemorySessionStore) Put(id string, session Session) error {
	s.mu.Lock()
	s.data[id] = session
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
}
