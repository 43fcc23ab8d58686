package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/vmchat/internal/logging"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 2 * time.Minute

// unlockTimeout bounds the release of a distributed lock.
const unlockTimeout = 5 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates transcript access, serializing turns per session.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.HistoryStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new session Manager on top of a history store.
func NewManager(store ports.HistoryStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Turn runs one chat turn for a session: the stored transcript is passed as
// history and the exchange is appended once the reply is known.
func (m *Manager) Turn(ctx context.Context, sessionID, input string, handler ports.TurnHandler) (domain.TurnResult, error) {
	var result domain.TurnResult
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		history, err := m.store.Load(ctx, sessionID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to load history: %w", err)
		}

		result = handler.Turn(ctx, input, history)

		if err := m.store.Append(ctx, sessionID,
			domain.Message{Role: domain.RoleUser, Content: input},
			domain.Message{Role: domain.RoleAssistant, Content: result.Reply},
		); err != nil {
			// The reply is still valid; only the transcript is behind.
			m.logger.Warn("Failed to append transcript",
				"session_id", sessionID,
				"err", err,
			)
		}
		return nil
	})
	return result, err
}

// History returns the transcript of a session.
func (m *Manager) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	return m.store.Load(ctx, sessionID)
}

// Delete removes the transcript of a session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying history store.
func (m *Manager) Store() ports.HistoryStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The request may be gone by now; the release must still reach the locker.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
			defer cancel()
			if err := unlock(releaseCtx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
