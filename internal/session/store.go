package session

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/sprich/internal/domain"
)

// Store is the in-memory session registry. Sessions do not survive a daemon
// restart; there is no persistence layer behind this map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Put inserts or replaces a session.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Get returns the session with the given ID.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown ID is an error so callers
// can distinguish a double delete.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// List returns the IDs of all live sessions.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
