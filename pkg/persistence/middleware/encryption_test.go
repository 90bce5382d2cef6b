package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/assetflow/pkg/adapters/memory"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/persistence/middleware"
	"github.com/aretw0/assetflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sealed(t *testing.T, cfg middleware.EncryptionConfig) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	store := sealed(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	inst := domain.NewWorkflowInstance("user_provisioning", 2, domain.Values{"email": "ada@example.com"})
	inst.StepIndex = 1
	require.NoError(t, store.Save(ctx, "s1", inst))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Values, "email")
	assert.Contains(t, raw.Values, "__encrypted__")
	assert.Equal(t, "user_provisioning", raw.Workflow)
	assert.Equal(t, 1, raw.StepIndex)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", loaded.Values["email"])
	assert.Equal(t, domain.PhaseEditing, loaded.Phase)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := sealed(t, middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, "s1", domain.NewWorkflowInstance("w", 1, domain.Values{"data": "old"})))

	newStore := sealed(t, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})(underlying)
	loaded, err := newStore.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "old", loaded.Values["data"])

	loaded.Values["data"] = "new"
	require.NoError(t, newStore.Save(ctx, "s1", loaded))

	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_PlainSnapshotRefused(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "s1", domain.NewWorkflowInstance("w", 1, nil)))

	store := sealed(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	underlying := memory.NewStore()
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.InstanceStore) ports.InstanceStore {
			return recordingStore{InstanceStore: next, name: name, order: &order}
		}
	}
	store := middleware.Chain(underlying, tag("outer"), tag("inner"))
	require.NoError(t, store.Save(context.Background(), "s1", domain.NewWorkflowInstance("w", 1, nil)))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type recordingStore struct {
	ports.InstanceStore
	name  string
	order *[]string
}

func (s recordingStore) Save(ctx context.Context, id string, inst *domain.WorkflowInstance) error {
	*s.order = append(*s.order, s.name)
	return s.InstanceStore.Save(ctx, id, inst)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunInstanceStoreContract(t, sealed(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewStore()))
}
