package memory

import (
	"context"
	"sync"

	"github.com/aretw0/vmchat/pkg/domain"
)

// Store implements ports.HistoryStore in memory.
// Safe for concurrent use.
type Store struct {
	data       map[string][]domain.Message
	maxHistory int
	mu         sync.RWMutex
}

// Option configures the Store.
type Option func(*Store)

// WithMaxHistory keeps only the last n messages of each transcript (0 = unbounded).
func WithMaxHistory(n int) Option {
	return func(s *Store) {
		s.maxHistory = n
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data: make(map[string][]domain.Message),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds messages to the session transcript.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.data[sessionID], msgs...)
	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = append([]domain.Message(nil), history[len(history)-s.maxHistory:]...)
	}
	s.data[sessionID] = history
	return nil
}

// Load returns a copy of the session transcript so callers can't mutate the store.
func (s *Store) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]domain.Message, len(history))
	copy(out, history)
	return out, nil
}

// Delete removes the transcript.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns active sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
