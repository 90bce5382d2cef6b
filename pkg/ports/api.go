package ports

import (
	"context"

	"github.com/aretw0/assetflow/pkg/domain"
)

// DataAPIClient is the request/response boundary of one resource type.
// Implementations normalize transport envelopes so callers only ever see
// bare values and collections.
type DataAPIClient[T any] interface {
	List(ctx context.Context, query domain.ListQuery) (domain.Page[T], error)
	Create(ctx context.Context, payload map[string]any) (T, error)
	Update(ctx context.Context, id string, payload map[string]any) (T, error)
	Remove(ctx context.Context, id string) error
	BulkUpdate(ctx context.Context, ids []string, patch map[string]any) error
	BulkRemove(ctx context.Context, ids []string) error
}

// CommitFunc submits the values of a workflow.
// Hosts inject one per resource type (asset creation, transfer, ...).
type CommitFunc func(ctx context.Context, values domain.Values) error

// FetchFunc loads a page of a collection.
type FetchFunc[T any] func(ctx context.Context, query domain.ListQuery) (domain.Page[T], error)

// BulkActionFunc applies one mutation to a batch of entity ids.
type BulkActionFunc func(ctx context.Context, ids []string) error

// MutationFunc performs a single mutation.
type MutationFunc func(ctx context.Context) error
