package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405.000000")

	attrs := func(state string) map[string]any {
		return map[string]any{
			domain.KeyModel: map[string]any{
				domain.KeyState: state,
				"name":          "Ada",
				"count":         42,
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, attrs("likesVoxa?")), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")

		ev := &domain.Event{Session: domain.Session{Attributes: loaded}}
		assert.Equal(t, "likesVoxa?", ev.PersistedState())
		assert.Equal(t, "Ada", ev.ModelData()["name"])
		// JSON backends turn ints into float64; only presence is part of the contract.
		assert.NotNil(t, ev.ModelData()["count"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, attrs("first")))
		require.NoError(t, store.Save(ctx, sessionID, attrs("second")))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		ev := &domain.Event{Session: domain.Session{Attributes: loaded}}
		assert.Equal(t, "second", ev.PersistedState())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, attrs("entry")))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, attrs("entry")))
		require.NoError(t, store.Save(ctx, id2, attrs("entry")))
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
