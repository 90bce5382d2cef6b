package inventory

import (
	"context"
	"log/slog"

	"github.com/aretw0/assetflow/internal/codec"
	"github.com/aretw0/assetflow/internal/logging"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/listview"
	"github.com/aretw0/assetflow/pkg/ports"
	"github.com/aretw0/assetflow/pkg/reconcile"
)

// View is a registry bound to its data client, independent of the entity type.
// Hosts serving many clients (HTTP, CLI) query it with a full ListQuery per
// call instead of holding a stateful list view per client.
type View interface {
	Name() string
	Facets() []string
	Actions() []string
	// Query evaluates q against the shared snapshot, loading it first if needed.
	Query(ctx context.Context, q domain.ListQuery) (Result, error)
	// Apply runs a bulk action over ids and refetches the snapshot.
	Apply(ctx context.Context, action string, ids []string) error
	Refresh(ctx context.Context) error
	// Lookup resolves one loaded entity by id as a plain map.
	Lookup(id string) (map[string]any, bool)
	Close()
}

// Result is one evaluated page of a registry.
type Result struct {
	Collection string                    `json:"collection"`
	Query      domain.ListQuery          `json:"query"`
	Items      []map[string]any          `json:"items"`
	Matched    int                       `json:"matched"`
	Total      int                       `json:"total"`
	Page       int                       `json:"page"`
	PageCount  int                       `json:"page_count"`
	Facets     map[string]map[string]int `json:"facets,omitempty"`
	Actions    []string                  `json:"actions,omitempty"`
}

// Binding couples a Registry with a data client and one coordinator whose
// snapshot is shared by every query.
type Binding[T any] struct {
	registry Registry[T]
	client   ports.DataAPIClient[T]
	coord    *reconcile.Coordinator[T]
	pageSize int
	logger   *slog.Logger
}

var _ View = (*Binding[Asset])(nil)

// Bind creates a binding. opts configure the shared coordinator.
func Bind[T any](r Registry[T], client ports.DataAPIClient[T], pageSize int, logger *slog.Logger, opts ...reconcile.Option) *Binding[T] {
	if logger == nil {
		logger = logging.NewNop()
	}
	opts = append([]reconcile.Option{reconcile.WithLogger(logger)}, opts...)
	return &Binding[T]{
		registry: r,
		client:   client,
		coord:    reconcile.New(r.Name, r.Fetch(client), nil, opts...),
		pageSize: pageSize,
		logger:   logger.With("collection", r.Name),
	}
}

func (b *Binding[T]) Name() string { return b.registry.Name }

func (b *Binding[T]) Facets() []string { return b.registry.FacetNames() }

func (b *Binding[T]) Actions() []string {
	view, err := b.view()
	if err != nil {
		return nil
	}
	defer view.Close()
	return view.BulkActions()
}

// Coordinator exposes the shared coordinator.
func (b *Binding[T]) Coordinator() *reconcile.Coordinator[T] { return b.coord }

func (b *Binding[T]) view() (*listview.Controller[T], error) {
	return listview.New(b.registry.Config(b.client, b.coord, b.pageSize), listview.WithLogger(b.logger))
}

func (b *Binding[T]) ensureLoaded(ctx context.Context) error {
	if b.coord.Snapshot().Loaded() {
		return nil
	}
	return b.coord.Refetch(ctx)
}

func (b *Binding[T]) Query(ctx context.Context, q domain.ListQuery) (Result, error) {
	if err := b.ensureLoaded(ctx); err != nil {
		return Result{}, err
	}
	view, err := b.view()
	if err != nil {
		return Result{}, err
	}
	defer view.Close()

	view.SetSearch(q.Search)
	for facet, values := range q.Filters {
		view.SetFilter(facet, values...)
	}
	if q.PageSize > 0 {
		view.SetPageSize(q.PageSize)
	}
	page := view.SetPage(q.Page)

	visible := view.Visible()
	items := make([]map[string]any, 0, len(visible))
	for _, item := range visible {
		m, err := codec.ToMap(item)
		if err != nil {
			return Result{}, err
		}
		items = append(items, m)
	}

	facets := make(map[string]map[string]int)
	for _, name := range b.registry.FacetNames() {
		facets[name] = view.FacetCounts(name)
	}

	return Result{
		Collection: b.registry.Name,
		Query:      view.Query(),
		Items:      items,
		Matched:    len(view.Filtered()),
		Total:      b.coord.Snapshot().Total(),
		Page:       page,
		PageCount:  view.PageCount(),
		Facets:     facets,
		Actions:    view.BulkActions(),
	}, nil
}

func (b *Binding[T]) Apply(ctx context.Context, action string, ids []string) error {
	view, err := b.view()
	if err != nil {
		return err
	}
	defer view.Close()
	return view.ApplyBulkAction(ctx, action, ids)
}

func (b *Binding[T]) Refresh(ctx context.Context) error {
	return b.coord.Refetch(ctx)
}

func (b *Binding[T]) Lookup(id string) (map[string]any, bool) {
	return Lookup(b.coord.Snapshot(), b.registry.Key)(id)
}

func (b *Binding[T]) Close() {
	b.coord.Close()
}
