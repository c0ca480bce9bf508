package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	parked := func(id string) *domain.Session {
		s := domain.NewSession(id)
		s.Await(&domain.Node{
			ID:      "menu",
			Kind:    domain.KindOptions,
			Prompt:  "Escolha:",
			Choices: []domain.Choice{{Label: "Vendas"}, {Label: "Suporte", Digit: "9"}},
		})
		return s
	}

	t.Run("Save and Load", func(t *testing.T) {
		session := parked(sessionID)

		err := store.Save(ctx, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "menu", loaded.CurrentNodeID)
		assert.True(t, loaded.AwaitingInput)
		assert.Equal(t, "Escolha:", loaded.ActivePrompt)
		assert.Equal(t, session.ActiveChoices, loaded.ActiveChoices)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		session := parked(sessionID)
		require.NoError(t, store.Save(ctx, session))

		session.Terminate()
		require.NoError(t, store.Save(ctx, session))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, loaded.CurrentNodeID)
		assert.False(t, loaded.AwaitingInput)
		assert.Empty(t, loaded.ActiveChoices)
		assert.Equal(t, domain.StatusTerminated, loaded.Status())
	})

	t.Run("Loaded Copy Is Detached", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, parked(sessionID)))

		first, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		first.ActiveChoices[0].Label = "mutated"
		first.CurrentNodeID = "elsewhere"

		second, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "menu", second.CurrentNodeID)
		assert.Equal(t, "Vendas", second.ActiveChoices[0].Label)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, parked(sessionID)))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, parked(id1)))
		require.NoError(t, store.Save(ctx, parked(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})

	t.Run("Concurrent Sessions", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := sessionID + "-c" + string(rune('a'+i))
				assert.NoError(t, store.Save(ctx, parked(id)))
				_, err := store.Load(ctx, id)
				assert.NoError(t, err)
				assert.NoError(t, store.Delete(ctx, id))
			}(i)
		}
		wg.Wait()
	})
}
