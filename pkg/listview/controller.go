// Package listview implements the client-side registry controller: search,
// faceted filters, pagination and multi-selection over the snapshot kept by a
// reconcile.Coordinator, plus bulk actions delegated back to it.
package listview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/assetflow/internal/logging"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/ports"
	"github.com/aretw0/assetflow/pkg/reconcile"
)

// Config describes how a view reads its entities.
type Config[T any] struct {
	// Collection names the registry ("assets", "users", ...).
	Collection string
	// Key returns the unique id of an entity.
	Key func(T) string
	// Facets maps a facet name to the accessor of its value.
	Facets map[string]func(T) string
	// SearchFields are matched case-insensitively against the search text.
	SearchFields []func(T) string
	PageSize     int
	// Fetch loads the collection. Ignored when Coordinator is set.
	Fetch ports.FetchFunc[T]
	// Coordinator lets several views share one snapshot.
	Coordinator *reconcile.Coordinator[T]
	BulkActions map[string]ports.BulkActionFunc
}

type options struct {
	logger      *slog.Logger
	coordinator []reconcile.Option
}

// Option configures the Controller.
type Option func(*options)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithCoordinatorOptions configures the coordinator created from Config.Fetch.
func WithCoordinatorOptions(opts ...reconcile.Option) Option {
	return func(o *options) { o.coordinator = append(o.coordinator, opts...) }
}

// Controller derives the visible page and selection of a registry.
type Controller[T any] struct {
	mu  sync.Mutex
	cfg Config[T]

	coord       *reconcile.Coordinator[T]
	ownsCoord   bool
	unsubscribe func()

	search   string
	filters  map[string][]string
	page     int
	pageSize int

	filtered []T
	selected map[string]struct{}
	active   bool

	logger *slog.Logger
}

// New creates a view. Its derived state is recomputed whenever the shared
// snapshot is replaced.
func New[T any](cfg Config[T], opts ...Option) (*Controller[T], error) {
	if cfg.Key == nil {
		return nil, errors.New("listview: key function is required")
	}
	if cfg.Coordinator == nil && cfg.Fetch == nil {
		return nil, errors.New("listview: fetch function or coordinator is required")
	}
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Controller[T]{
		cfg:      cfg,
		coord:    cfg.Coordinator,
		filters:  make(map[string][]string),
		pageSize: cfg.PageSize,
		selected: make(map[string]struct{}),
		active:   true,
	}
	if c.pageSize <= 0 {
		c.pageSize = domain.DefaultPageSize
	}
	if c.coord == nil {
		c.coord = reconcile.New(cfg.Collection, cfg.Fetch, nil, o.coordinator...)
		c.ownsCoord = true
	}
	if c.cfg.Collection == "" {
		c.cfg.Collection = c.coord.Collection()
	}
	c.logger = o.logger.With("collection", c.cfg.Collection)

	c.rederive(c.coord.Snapshot().Items())
	c.unsubscribe = c.coord.Snapshot().Subscribe(func(items []T) {
		c.rederive(items)
	})
	return c, nil
}

// Coordinator returns the coordinator backing the view.
func (c *Controller[T]) Coordinator() *reconcile.Coordinator[T] { return c.coord }

// Query returns the current query state.
func (c *Controller[T]) Query() domain.ListQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	filters := make(map[string][]string, len(c.filters))
	for k, v := range c.filters {
		filters[k] = append([]string(nil), v...)
	}
	return domain.ListQuery{Search: c.search, Filters: filters, Page: c.page, PageSize: c.pageSize}
}

// SetSearch changes the search text and returns to the first page. The text
// is matched as given, without trimming.
func (c *Controller[T]) SetSearch(text string) {
	c.mu.Lock()
	c.search = text
	c.page = 0
	c.mu.Unlock()
	c.rederive(c.coord.Snapshot().Items())
}

// SetFilter restricts facet to the given values; no values removes the
// restriction. An item passes when its facet value is one of values, compared
// exactly. Unknown facets are ignored. Returns to the first page.
func (c *Controller[T]) SetFilter(facet string, values ...string) {
	if _, ok := c.cfg.Facets[facet]; !ok {
		c.logger.Debug("filter on unknown facet ignored", "facet", facet)
		return
	}
	var kept []string
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}

	c.mu.Lock()
	if len(kept) == 0 {
		delete(c.filters, facet)
	} else {
		c.filters[facet] = kept
	}
	c.page = 0
	c.mu.Unlock()
	c.rederive(c.coord.Snapshot().Items())
}

// ClearFilters removes the search text and every facet restriction.
func (c *Controller[T]) ClearFilters() {
	c.mu.Lock()
	c.search = ""
	c.filters = make(map[string][]string)
	c.page = 0
	c.mu.Unlock()
	c.rederive(c.coord.Snapshot().Items())
}

// SetPageSize changes the page size (the default when n <= 0) and returns to
// the first page.
func (c *Controller[T]) SetPageSize(n int) {
	if n <= 0 {
		n = domain.DefaultPageSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageSize = n
	c.page = 0
}

// SetPage moves to page n clamped to the available range and returns the
// resulting page index.
func (c *Controller[T]) SetPage(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = clamp(n, c.pageCountLocked())
	return c.page
}

// Page returns the current page index.
func (c *Controller[T]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// PageCount returns the number of pages of the filtered set (at least 1).
func (c *Controller[T]) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageCountLocked()
}

func (c *Controller[T]) pageCountLocked() int {
	n := (len(c.filtered) + c.pageSize - 1) / c.pageSize
	if n == 0 {
		return 1
	}
	return n
}

func clamp(page, count int) int {
	if page >= count {
		page = count - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

// Filtered returns every entity passing the search and facet filters, in
// snapshot order.
func (c *Controller[T]) Filtered() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.filtered...)
}

// Visible returns the current page of the filtered set.
func (c *Controller[T]) Visible() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := c.page * c.pageSize
	if start >= len(c.filtered) {
		return []T{}
	}
	end := min(start+c.pageSize, len(c.filtered))
	return append([]T(nil), c.filtered[start:end]...)
}

// FacetCounts counts the whole snapshot by the value of facet.
func (c *Controller[T]) FacetCounts(facet string) map[string]int {
	get, ok := c.cfg.Facets[facet]
	if !ok {
		return nil
	}
	counts := make(map[string]int)
	for _, item := range c.coord.Snapshot().Items() {
		counts[get(item)]++
	}
	return counts
}

// rederive recomputes the filtered set and prunes the selection to it.
// The page index is clamped to the new page count.
func (c *Controller[T]) rederive(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if c.matchesLocked(item) {
			filtered = append(filtered, item)
		}
	}
	c.filtered = filtered

	visible := make(map[string]struct{}, len(filtered))
	for _, item := range filtered {
		visible[c.cfg.Key(item)] = struct{}{}
	}
	for id := range c.selected {
		if _, ok := visible[id]; !ok {
			delete(c.selected, id)
		}
	}
	c.page = clamp(c.page, c.pageCountLocked())
}

func (c *Controller[T]) matchesLocked(item T) bool {
	for facet, allowed := range c.filters {
		value := c.cfg.Facets[facet](item)
		if !slices.Contains(allowed, value) {
			return false
		}
	}
	if c.search == "" || len(c.cfg.SearchFields) == 0 {
		return true
	}
	needle := strings.ToLower(c.search)
	for _, field := range c.cfg.SearchFields {
		if strings.Contains(strings.ToLower(field(item)), needle) {
			return true
		}
	}
	return false
}

// ToggleSelect flips the selection of id and reports whether it is now
// selected. Ids outside the filtered set cannot be selected.
func (c *Controller[T]) ToggleSelect(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return false
	}
	for _, item := range c.filtered {
		if c.cfg.Key(item) == id {
			c.selected[id] = struct{}{}
			return true
		}
	}
	return false
}

// SelectAll selects every entity of the filtered set, across all pages.
func (c *Controller[T]) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.filtered {
		c.selected[c.cfg.Key(item)] = struct{}{}
	}
}

// ClearSelection empties the selection.
func (c *Controller[T]) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = make(map[string]struct{})
}

// Selected returns the selected ids in lexical order.
func (c *Controller[T]) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectionState reports none, some or all relative to the filtered set.
func (c *Controller[T]) SelectionState() domain.SelectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case len(c.selected) == 0:
		return domain.SelectionNone
	case len(c.selected) == len(c.filtered):
		return domain.SelectionAll
	default:
		return domain.SelectionSome
	}
}

// BulkActions returns the configured action ids in lexical order.
func (c *Controller[T]) BulkActions() []string {
	ids := make([]string, 0, len(c.cfg.BulkActions))
	for id := range c.cfg.BulkActions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ApplyBulkAction runs a configured action over ids, or over the current
// selection when ids is empty. Local entities are never modified: on success
// the coordinator refetches and the selection is cleared afterwards; on
// failure both snapshot and selection stay as they were.
func (c *Controller[T]) ApplyBulkAction(ctx context.Context, actionID string, ids []string) error {
	run, ok := c.cfg.BulkActions[actionID]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownAction, actionID)
	}
	if !c.isActive() {
		return domain.ErrDisposed
	}
	if len(ids) == 0 {
		ids = c.Selected()
	}
	return c.coord.CommitBulk(ctx, actionID, run, ids, reconcile.Callbacks{
		OnSuccess: c.ClearSelection,
	})
}

// Refresh refetches the collection through the coordinator.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	if !c.isActive() {
		return domain.ErrDisposed
	}
	return c.coord.Refetch(ctx)
}

func (c *Controller[T]) isActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Close detaches the view from the snapshot. A coordinator created by the
// view is closed as well; a shared one keeps serving other views.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	unsubscribe := c.unsubscribe
	c.mu.Unlock()

	unsubscribe()
	if c.ownsCoord {
		c.coord.Close()
	}
}
