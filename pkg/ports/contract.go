package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHistoryStoreContract runs a suite of tests to verify that a HistoryStore
// implementation adheres to the defined interface contract.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Append and Load", func(t *testing.T) {
		err := store.Append(ctx, sessionID,
			domain.Message{Role: domain.RoleUser, Content: "list all vms"},
			domain.Message{Role: domain.RoleAssistant, Content: "You have 2 VMs."},
		)
		require.NoError(t, err, "Append should not return error")

		err = store.Append(ctx, sessionID, domain.Message{Role: domain.RoleUser, Content: "restart vm1"})
		require.NoError(t, err)

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, 3)
		assert.Equal(t, "list all vms", loaded[0].Content)
		assert.Equal(t, domain.RoleAssistant, loaded[1].Role)
		assert.Equal(t, "restart vm1", loaded[2].Content)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Loaded Slice Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded[0].Content = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "list all vms", again[0].Content)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Append(ctx, id1, domain.Message{Role: domain.RoleUser, Content: "hi"})
		_ = store.Append(ctx, id2, domain.Message{Role: domain.RoleUser, Content: "hello"})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
