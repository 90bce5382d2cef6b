package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/assetflow/internal/codec"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned for ids the collection does not hold.
var ErrNotFound = errors.New("entity not found")

// Collection implements ports.DataAPIClient over an in-memory list.
// It backs the console when no remote API is configured and serves as the
// test double of the HTTP client. Entities are decoded from payloads through
// their json tags; the id field is assigned a UUID when absent.
type Collection[T any] struct {
	mu      sync.RWMutex
	name    string
	idField string
	key     func(T) string
	items   []T
}

// NewCollection creates a collection keyed by key. idField is the json name
// of the id property ("id" when empty).
func NewCollection[T any](name string, key func(T) string, idField string, seed ...T) *Collection[T] {
	if idField == "" {
		idField = "id"
	}
	return &Collection[T]{
		name:    name,
		idField: idField,
		key:     key,
		items:   append([]T(nil), seed...),
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// List returns the items in insertion order. A positive page size slices the
// requested page; search and filters are applied client-side by list views.
func (c *Collection[T]) List(ctx context.Context, query domain.ListQuery) (domain.Page[T], error) {
	if err := ctx.Err(); err != nil {
		return domain.Page[T]{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := c.items
	if query.PageSize > 0 {
		start := min(query.Page*query.PageSize, len(items))
		end := min(start+query.PageSize, len(items))
		items = items[start:end]
	}
	return domain.Page[T]{Items: append([]T(nil), items...), Total: len(c.items)}, nil
}

// Get returns one entity.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], nil
	}
	var zero T
	return zero, fmt.Errorf("%s %q: %w", c.name, id, ErrNotFound)
}

// Create decodes payload into a new entity and appends it.
func (c *Collection[T]) Create(ctx context.Context, payload map[string]any) (T, error) {
	data := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		data[k] = v
	}
	if id, _ := data[c.idField].(string); id == "" {
		data[c.idField] = uuid.NewString()
	}

	item, err := codec.Decode[T](data)
	if err != nil {
		return item, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(c.key(item)) >= 0 {
		var zero T
		return zero, fmt.Errorf("%s %q already exists", c.name, c.key(item))
	}
	c.items = append(c.items, item)
	return item, nil
}

// Update merges payload into an existing entity. The id never changes.
func (c *Collection[T]) Update(ctx context.Context, id string, payload map[string]any) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateLocked(id, payload)
}

func (c *Collection[T]) updateLocked(id string, payload map[string]any) (T, error) {
	i := c.indexLocked(id)
	if i < 0 {
		var zero T
		return zero, fmt.Errorf("%s %q: %w", c.name, id, ErrNotFound)
	}
	patch := make(map[string]any, len(payload))
	for k, v := range payload {
		if k != c.idField {
			patch[k] = v
		}
	}
	next, err := codec.Merge(c.items[i], patch)
	if err != nil {
		return c.items[i], err
	}
	c.items[i] = next
	return next, nil
}

// Remove deletes one entity.
func (c *Collection[T]) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%s %q: %w", c.name, id, ErrNotFound)
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// BulkUpdate patches every id or none: an unknown id fails the whole batch.
func (c *Collection[T]) BulkUpdate(ctx context.Context, ids []string, patch map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(ids); err != nil {
		return err
	}
	backup := append([]T(nil), c.items...)
	for _, id := range ids {
		if _, err := c.updateLocked(id, patch); err != nil {
			c.items = backup
			return err
		}
	}
	return nil
}

// BulkRemove deletes every id or none.
func (c *Collection[T]) BulkRemove(ctx context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(ids); err != nil {
		return err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if !drop[c.key(item)] {
			kept = append(kept, item)
		}
	}
	c.items = kept
	return nil
}

func (c *Collection[T]) checkLocked(ids []string) error {
	for _, id := range ids {
		if c.indexLocked(id) < 0 {
			return fmt.Errorf("%s %q: %w", c.name, id, ErrNotFound)
		}
	}
	return nil
}

func (c *Collection[T]) indexLocked(id string) int {
	for i, item := range c.items {
		if c.key(item) == id {
			return i
		}
	}
	return -1
}
