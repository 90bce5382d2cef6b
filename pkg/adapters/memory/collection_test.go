package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/assetflow/pkg/adapters/memory"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

var _ ports.DataAPIClient[device] = (*memory.Collection[device])(nil)

func newDevices() *memory.Collection[device] {
	return memory.NewCollection("devices", func(d device) string { return d.ID }, "",
		device{ID: "d1", Name: "Laptop", Status: "active"},
		device{ID: "d2", Name: "Phone", Status: "active"},
		device{ID: "d3", Name: "Monitor", Status: "active"},
	)
}

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	c := newDevices()

	created, err := c.Create(ctx, map[string]any{"name": "Dock", "status": "active"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "id assigned when absent")

	_, err = c.Create(ctx, map[string]any{"id": "d1"})
	assert.Error(t, err, "duplicate id")

	updated, err := c.Update(ctx, "d1", map[string]any{"status": "retired", "id": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, device{ID: "d1", Name: "Laptop", Status: "retired"}, updated)

	require.NoError(t, c.Remove(ctx, "d2"))
	assert.ErrorIs(t, c.Remove(ctx, "d2"), memory.ErrNotFound)

	page, err := c.List(ctx, domain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

func TestCollection_Bulk(t *testing.T) {
	ctx := context.Background()

	t.Run("Update Is All Or Nothing", func(t *testing.T) {
		c := newDevices()
		err := c.BulkUpdate(ctx, []string{"d1", "missing"}, map[string]any{"status": "lost"})
		assert.ErrorIs(t, err, memory.ErrNotFound)

		d1, _ := c.Get(ctx, "d1")
		assert.Equal(t, "active", d1.Status)

		require.NoError(t, c.BulkUpdate(ctx, []string{"d1", "d2"}, map[string]any{"status": "lost"}))
		d2, _ := c.Get(ctx, "d2")
		assert.Equal(t, "lost", d2.Status)
	})

	t.Run("Remove", func(t *testing.T) {
		c := newDevices()
		require.NoError(t, c.BulkRemove(ctx, []string{"d1", "d3"}))
		page, _ := c.List(ctx, domain.ListQuery{})
		assert.Equal(t, []device{{ID: "d2", Name: "Phone", Status: "active"}}, page.Items)
	})
}

func TestCollection_ListPaging(t *testing.T) {
	c := newDevices()
	page, err := c.List(context.Background(), domain.ListQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Total)

	page, err = c.List(context.Background(), domain.ListQuery{Page: 5, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
