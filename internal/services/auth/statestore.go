package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StateTTL is how long an issued authorization state remains valid.
const StateTTL = 10 * time.Minute

// stateStore holds ephemeral CSRF state nonces. A state is valid for use
// at most once and only before its TTL elapses.
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time // state -> absolute expiry
}

func newStateStore() *stateStore {
	return &stateStore{
		states: make(map[string]time.Time),
	}
}

// Issue records and returns a fresh opaque state nonce.
func (s *stateStore) Issue(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop expired entries so abandoned flows don't accumulate.
	for state, expiry := range s.states {
		if now.After(expiry) {
			delete(s.states, state)
		}
	}

	state := uuid.NewString()
	s.states[state] = now.Add(StateTTL)
	return state
}

// Consume deletes the state on first lookup, enforcing single use, and
// reports whether it was known and unexpired.
func (s *stateStore) Consume(state string, now time.Time) bool {
	if state == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return now.Before(expiry)
}

// Clear discards all pending states.
func (s *stateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]time.Time)
}
