package session

import (
	"context"
	"sync"

	"github.com/inverlab/finagent/core"
)

// InMemoryStore is a volatile SessionStore keeping histories in a process
// local map. Safe for concurrent access; best suited for tests and ephemeral
// demo servers. Histories are copied on the way in and out so callers can
// never mutate stored state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]core.Turn
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]core.Turn)}
}

// Load returns a copy of the stored history, or an empty sequence for an
// unknown session. It never fails.
func (s *InMemoryStore) Load(_ context.Context, sessionID string) ([]core.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns, ok := s.sessions[sessionID]
	if !ok {
		return []core.Turn{}, nil
	}
	out := make([]core.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Save replaces the stored history for the session with a copy of turns.
func (s *InMemoryStore) Save(_ context.Context, sessionID string, turns []core.Turn) error {
	stored := make([]core.Turn, len(turns))
	copy(stored, turns)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = stored
	return nil
}
