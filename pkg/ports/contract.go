package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/assetflow/pkg/domain"
)

// RunInstanceStoreContract runs a suite of tests to verify that an InstanceStore
// implementation adheres to the defined interface contract.
func RunInstanceStoreContract(t *testing.T, store InstanceStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		inst := domain.NewWorkflowInstance("asset_intake", 3, domain.Values{"name": "Laptop", "quantity": 42})
		inst.StepIndex = 1
		inst.Errors["serial"] = "is required"

		err := store.Save(ctx, sessionID, inst)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "asset_intake", loaded.Workflow)
		assert.Equal(t, 1, loaded.StepIndex)
		assert.Equal(t, 3, loaded.StepCount)
		assert.Equal(t, domain.PhaseEditing, loaded.Phase)
		assert.Equal(t, "Laptop", loaded.Values["name"])
		assert.Equal(t, "is required", loaded.Errors["serial"])
		// JSON persistence may turn ints into floats; only check presence.
		assert.NotNil(t, loaded.Values["quantity"])
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Values["name"] = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Laptop", again.Values["name"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewWorkflowInstance("asset_intake", 1, nil))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewWorkflowInstance("w", 1, nil))
		_ = store.Save(ctx, id2, domain.NewWorkflowInstance("w", 1, nil))

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
