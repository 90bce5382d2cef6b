package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrap(t *testing.T) {
	entity := map[string]any{"id": "a1"}
	tests := []struct {
		name string
		raw  any
	}{
		{"Bare", entity},
		{"Data", map[string]any{"data": entity}},
		{"Nested Data", map[string]any{"data": map[string]any{"data": entity}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, entity, Unwrap(tt.raw))
		})
	}
}

func TestUnwrapList(t *testing.T) {
	items := []any{map[string]any{"id": "a"}, map[string]any{"id": "b"}}
	tests := []struct {
		name  string
		raw   any
		total int
	}{
		{"Bare Array", items, 2},
		{"Data Array", map[string]any{"data": items}, 2},
		{"Data Items", map[string]any{"data": map[string]any{"items": items, "total": float64(40)}}, 40},
		{"Top Level Items", map[string]any{"items": items, "count": float64(7)}, 7},
		{"Resource Key", map[string]any{"data": map[string]any{"assets": items, "meta": map[string]any{"total": float64(9)}}}, 9},
		{"Results", map[string]any{"results": items}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := UnwrapList(tt.raw, "assets")
			require.NoError(t, err)
			assert.Equal(t, items, got)
			assert.Equal(t, tt.total, total)
		})
	}

	t.Run("Unknown Shape", func(t *testing.T) {
		_, _, err := UnwrapList(map[string]any{"data": map[string]any{"rows": items}})
		assert.Error(t, err)

		_, _, err = UnwrapList("oops")
		assert.Error(t, err)
	})
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "nope", errorMessage(map[string]any{"message": "nope"}))
	assert.Equal(t, "bad", errorMessage(map[string]any{"error": map[string]any{"message": "bad"}}))
	assert.Empty(t, errorMessage([]any{}))
}
