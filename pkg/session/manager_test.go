package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/vmchat/pkg/adapters/memory"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
	"github.com/aretw0/vmchat/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string][]domain.Message
	mu   sync.Mutex
}

func (s *SlowStore) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string][]domain.Message)
	}
	s.data[sessionID] = append(s.data[sessionID], msgs...)
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if msgs, ok := s.data[sessionID]; ok {
		return append([]domain.Message(nil), msgs...), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

// historyCounter replies with the number of messages it was given.
type historyCounter struct {
	mu   sync.Mutex
	seen []int
}

func (h *historyCounter) Turn(ctx context.Context, input string, history []domain.Message) domain.TurnResult {
	h.mu.Lock()
	h.seen = append(h.seen, len(history))
	h.mu.Unlock()
	return domain.TurnResult{Reply: fmt.Sprintf("reply to %s", input), Outcome: domain.OutcomeRawText}
}

var _ ports.TurnHandler = (*historyCounter)(nil)

func TestManager_TurnAppendsExchange(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	handler := &historyCounter{}

	res, err := manager.Turn(ctx, "s1", "list all vms", handler)
	require.NoError(t, err)
	assert.Equal(t, "reply to list all vms", res.Reply)

	_, err = manager.Turn(ctx, "s1", "restart vm1", handler)
	require.NoError(t, err)

	history, err := manager.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "list all vms"}, history[0])
	assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "reply to list all vms"}, history[1])
	assert.Equal(t, []int{0, 2}, handler.seen)
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"
	handler := &historyCounter{}

	var wg sync.WaitGroup
	concurrentTurns := 10

	for i := 0; i < concurrentTurns; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			_, err := manager.Turn(ctx, id, fmt.Sprintf("msg-%d", val), handler)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := manager.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2*concurrentTurns)

	// Serialized turns see 0, 2, 4, ... messages and pairs stay adjacent.
	assert.ElementsMatch(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}, handler.seen)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, domain.RoleUser, history[i].Role)
		assert.Equal(t, "reply to "+history[i].Content, history[i+1].Content)
	}
}

type failingLocker struct{}

func (failingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("redis down")
}

func TestManager_DistributedLockFailure(t *testing.T) {
	manager := session.NewManager(memory.NewStore(), session.WithLocker(failingLocker{}))

	_, err := manager.Turn(context.Background(), "s1", "hi", &historyCounter{})
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}

// recordingLocker remembers whether the release context was still live.
type recordingLocker struct {
	releaseErr      error
	releaseDeadline bool
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	return func(ctx context.Context) error {
		l.releaseErr = ctx.Err()
		_, l.releaseDeadline = ctx.Deadline()
		return nil
	}, nil
}

func TestManager_ReleasesLockAfterCancellation(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker))

	ctx, cancel := context.WithCancel(context.Background())
	err := manager.WithLock(ctx, "s1", func(ctx context.Context) error {
		cancel() // client went away mid-turn
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, locker.releaseErr, "release must not inherit the cancelled request context")
	assert.True(t, locker.releaseDeadline, "release must be bounded")
}

func TestManager_Delete(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Turn(ctx, "s1", "hi", &historyCounter{})
	require.NoError(t, err)

	require.NoError(t, manager.Delete(ctx, "s1"))
	_, err = manager.History(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
