package api

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/jonboulle/clockwork"

	icrypto "github.com/jmcleod/racetrack/internal/crypto"
	"github.com/jmcleod/racetrack/internal/util"
	"github.com/jmcleod/racetrack/storage"
)

const (
	sessionBucket   = "sessions"
	cleanupInterval = 15 * time.Minute
)

// PersistentSessionStore stores sessions in a storage.KV, encrypted at rest
// using AES-256-GCM. Sessions survive server restarts.
//
// The sealing key is derived from the session secret, so rotating the
// secret makes every stored session unreadable.
type PersistentSessionStore struct {
	kv          storage.KV
	key         *memguard.Enclave
	idleTimeout time.Duration
	clock       clockwork.Clock
	stopOnce    sync.Once
	stopCh      chan struct{}
	done        chan struct{}
}

var _ SessionStore = (*PersistentSessionStore)(nil)

// NewPersistentSessionStore creates a session store backed by kv and starts
// the background sweep of idle sessions. idleTimeout of 0 disables idle
// timeout checking. A nil clock uses the wall clock.
func NewPersistentSessionStore(kv storage.KV, secret []byte, idleTimeout time.Duration, clock clockwork.Clock) (*PersistentSessionStore, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret must not be empty")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	key, err := util.HKDF(secret, nil, []byte(util.InfoSessionSeal))
	if err != nil {
		return nil, fmt.Errorf("deriving session key: %w", err)
	}
	s := &PersistentSessionStore{
		kv:          kv,
		key:         memguard.NewEnclave(key),
		idleTimeout: idleTimeout,
		clock:       clock,
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}
	go s.cleanupLoop()
	return s, nil
}

// Close stops the background cleanup goroutine.
func (s *PersistentSessionStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.done
	})
}

func (s *PersistentSessionStore) Get(id string) (Session, bool) {
	session, err := s.load(id)
	if err != nil {
		return Session{}, false
	}
	if idleExpired(session, s.idleTimeout, s.clock.Now()) {
		s.Delete(id)
		return Session{}, false
	}
	return session, true
}

func (s *PersistentSessionStore) Put(id string, session Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	defer util.WipeBytes(data)

	key, err := s.key.Open()
	if err != nil {
		return fmt.Errorf("opening session key enclave: %w", err)
	}
	defer key.Destroy()

	env, err := storage.SealRecord(key.Bytes(), data, icrypto.AADSession(id, icrypto.SessionFormat))
	if err != nil {
		return fmt.Errorf("sealing session: %w", err)
	}
	return s.kv.Put(sessionBucket, id, env)
}

func (s *PersistentSessionStore) Delete(id string) {
	_ = s.kv.Delete(sessionBucket, id)
}

func (s *PersistentSessionStore) load(id string) (Session, error) {
	env, err := s.kv.Get(sessionBucket, id)
	if err != nil {
		return Session{}, err
	}
	key, err := s.key.Open()
	if err != nil {
		return Session{}, err
	}
	defer key.Destroy()

	data, err := storage.OpenRecord(key.Bytes(), env, icrypto.AADSession(id, icrypto.SessionFormat))
	if err != nil {
		return Session{}, err
	}
	defer util.WipeBytes(data)

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// cleanupLoop periodically removes idle and unreadable sessions.
func (s *PersistentSessionStore) cleanupLoop() {
	defer close(s.done)
	ticker := s.clock.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.Chan():
			s.sweepExpired()
		}
	}
}

func (s *PersistentSessionStore) sweepExpired() int {
	ids, err := s.kv.List(sessionBucket)
	if err != nil {
		return 0
	}
	now := s.clock.Now()
	removed := 0
	for _, id := range ids {
		session, err := s.load(id)
		// Sessions sealed under a previous secret are removed too.
		if err != nil || idleExpired(session, s.idleTimeout, now) {
			_ = s.kv.Delete(sessionBucket, id)
			removed++
		}
	}
	return removed
}
