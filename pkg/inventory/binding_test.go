package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/assetflow/pkg/adapters/memory"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinding_Query(t *testing.T) {
	client := memory.NewCollection("assets", inventory.Assets.Key, "", inventory.SampleAssets()...)
	b := inventory.Bind(inventory.Assets, client, 10, nil)
	t.Cleanup(b.Close)
	ctx := context.Background()

	res, err := b.Query(ctx, domain.ListQuery{
		Filters:  map[string][]string{"category": {"hardware"}},
		Page:     2,
		PageSize: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, res.Matched)
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 3, res.PageCount)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Epson projector", res.Items[0]["name"])
	assert.Equal(t, 7, res.Facets["category"]["hardware"])
	assert.Equal(t, []string{"activate", "delete", "maintenance", "retire"}, res.Actions)

	t.Run("Page Clamped", func(t *testing.T) {
		res, err := b.Query(ctx, domain.ListQuery{Search: "licence", Page: 9})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Page)
		assert.Len(t, res.Items, 2)
	})
}

func TestBinding_Apply(t *testing.T) {
	client := memory.NewCollection("assets", inventory.Assets.Key, "", inventory.SampleAssets()...)
	b := inventory.Bind(inventory.Assets, client, 10, nil)
	t.Cleanup(b.Close)
	ctx := context.Background()

	require.NoError(t, b.Apply(ctx, "retire", []string{"ast-001", "ast-002"}))

	res, err := b.Query(ctx, domain.ListQuery{Filters: map[string][]string{"status": {"retired"}}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Matched)

	a, ok := b.Lookup("ast-002")
	require.True(t, ok)
	assert.Equal(t, "retired", a["status"])

	err = b.Apply(ctx, "explode", []string{"ast-001"})
	assert.True(t, errors.Is(err, domain.ErrUnknownAction))

	var mErr *domain.MutationError
	err = b.Apply(ctx, "delete", []string{"ast-404"})
	require.ErrorAs(t, err, &mErr)
}
