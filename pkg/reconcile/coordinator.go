// Package reconcile keeps a client-side collection consistent with the server
// after mutations.
//
// The Coordinator never patches entities locally: every successful mutation is
// followed by a full refetch that replaces the shared Snapshot. Fetches are
// numbered; a response whose generation is older than the latest issued fetch
// is discarded on arrival, and anything arriving after Close is dropped.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/assetflow/internal/logging"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/ports"
)

// Callbacks are invoked once a mutation settles.
// OnSuccess runs only after a refetch issued by the mutation itself replaced
// the snapshot.
type Callbacks struct {
	OnSuccess func()
	OnFailure func(error)
	// Quiet skips the mutation's own success and failure notifications, for
	// callers that report the outcome themselves. Fetch failures are still
	// notified.
	Quiet bool
}

func (cb Callbacks) success() {
	if cb.OnSuccess != nil {
		cb.OnSuccess()
	}
}

func (cb Callbacks) failure(err error) {
	if cb.OnFailure != nil {
		cb.OnFailure(err)
	}
}

type options struct {
	notifier ports.NotificationSink
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option configures the Coordinator.
type Option func(*options)

// WithNotifier sets the sink receiving mutation and fetch outcomes.
func WithNotifier(sink ports.NotificationSink) Option {
	return func(o *options) { o.notifier = sink }
}

// WithLifecycleHooks registers fetch and mutation hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) { o.hooks = hooks }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Coordinator serializes the refresh cycle of one collection.
type Coordinator[T any] struct {
	mu          sync.Mutex
	collection  string
	fetch       ports.FetchFunc[T]
	snapshot    *Snapshot[T]
	query       domain.ListQuery
	generation  uint64
	active      bool
	bulkPending bool

	opts   options
	logger *slog.Logger
}

// New creates a coordinator for collection. A nil snapshot gets a fresh one.
func New[T any](collection string, fetch ports.FetchFunc[T], snapshot *Snapshot[T], opts ...Option) *Coordinator[T] {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if snapshot == nil {
		snapshot = NewSnapshot[T]()
	}
	return &Coordinator[T]{
		collection: collection,
		fetch:      fetch,
		snapshot:   snapshot,
		active:     true,
		opts:       o,
		logger:     o.logger.With("collection", collection),
	}
}

// Collection returns the collection name.
func (c *Coordinator[T]) Collection() string { return c.collection }

// Snapshot returns the shared snapshot.
func (c *Coordinator[T]) Snapshot() *Snapshot[T] { return c.snapshot }

// SetQuery sets the query sent on subsequent fetches.
func (c *Coordinator[T]) SetQuery(q domain.ListQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
}

// Generation returns the latest issued fetch generation.
func (c *Coordinator[T]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Active reports whether Close has not been called yet.
func (c *Coordinator[T]) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Close marks the coordinator inactive. In-flight calls are not interrupted;
// their results are dropped on arrival.
func (c *Coordinator[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
}

// maxReconcileAttempts bounds how often a mutation re-issues its refetch when
// newer fetches keep superseding it.
const maxReconcileAttempts = 3

// errSuperseded is the cause of the FetchError returned when every refetch of
// a mutation was overtaken by a newer fetch.
var errSuperseded = errors.New("refetch superseded by newer fetches")

// Refetch loads the collection and replaces the snapshot.
//
// A failed fetch is notified and returned as a *domain.FetchError while the
// previous snapshot stays in place. A response superseded by a newer fetch is
// discarded and Refetch returns nil, since the newer fetch owns the snapshot.
// After Close it returns domain.ErrDisposed.
func (c *Coordinator[T]) Refetch(ctx context.Context) error {
	_, err := c.refetch(ctx)
	return err
}

// refetch reports whether its response replaced the snapshot.
func (c *Coordinator[T]) refetch(ctx context.Context) (applied bool, err error) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return false, domain.ErrDisposed
	}
	c.generation++
	gen := c.generation
	q := c.query
	c.mu.Unlock()

	start := time.Now()
	page, err := c.fetch(ctx, q)
	elapsed := time.Since(start)

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		c.logger.Debug("fetch resolved after close, dropped", "generation", gen)
		c.emitFetch(gen, false, true, 0, elapsed, err)
		return false, domain.ErrDisposed
	}
	if gen != c.generation {
		latest := c.generation
		c.mu.Unlock()
		c.logger.Debug("stale fetch discarded", "generation", gen, "latest", latest)
		c.emitFetch(gen, true, false, 0, elapsed, err)
		return false, nil
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("fetch failed", "generation", gen, "err", err)
		c.notify(domain.NotifyError, fmt.Sprintf("Could not load %s: %v", c.collection, err))
		c.emitFetch(gen, false, false, 0, elapsed, err)
		return false, &domain.FetchError{Collection: c.collection, Err: err}
	}
	// The replacement happens under the lock so that a newer generation can
	// never be overwritten by an older one.
	version := c.snapshot.set(page)
	c.mu.Unlock()

	c.snapshot.publish(version)
	c.logger.Debug("snapshot replaced", "generation", gen, "count", len(page.Items))
	c.emitFetch(gen, false, false, len(page.Items), elapsed, nil)
	return true, nil
}

// reconcile refetches until one of its own responses replaces the snapshot.
// A response overtaken by a newer fetch proves nothing about the mutation,
// so it is re-issued.
func (c *Coordinator[T]) reconcile(ctx context.Context, action string) error {
	for attempt := 1; attempt <= maxReconcileAttempts; attempt++ {
		applied, err := c.refetch(ctx)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		c.logger.Debug("refetch after mutation superseded, retrying", "action", action, "attempt", attempt)
	}
	c.logger.Warn("mutation not reconciled", "action", action, "attempts", maxReconcileAttempts)
	return &domain.FetchError{Collection: c.collection, Err: errSuperseded}
}

// CommitSingle runs a single-entity mutation.
// Success triggers a full refetch and then OnSuccess; failure leaves the
// snapshot untouched, is notified and forwarded to OnFailure.
func (c *Coordinator[T]) CommitSingle(ctx context.Context, action string, commit ports.MutationFunc, cb Callbacks) error {
	return c.mutate(ctx, action, 1, commit, cb)
}

// CommitBulk runs action over ids with the same contract as CommitSingle.
// Clearing the selection belongs in OnSuccess. A bulk action issued while
// another one is pending returns domain.ErrReentrant without running.
// An empty id list is a no-op.
func (c *Coordinator[T]) CommitBulk(ctx context.Context, action string, run ports.BulkActionFunc, ids []string, cb Callbacks) error {
	if len(ids) == 0 {
		return nil
	}

	c.mu.Lock()
	if c.bulkPending {
		c.mu.Unlock()
		c.logger.Debug("bulk action ignored, another one is pending", "action", action)
		return domain.ErrReentrant
	}
	c.bulkPending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.bulkPending = false
		c.mu.Unlock()
	}()

	ids = append([]string(nil), ids...)
	return c.mutate(ctx, action, len(ids), func(ctx context.Context) error {
		return run(ctx, ids)
	}, cb)
}

func (c *Coordinator[T]) mutate(ctx context.Context, action string, count int, commit ports.MutationFunc, cb Callbacks) error {
	if !c.Active() {
		return domain.ErrDisposed
	}

	start := time.Now()
	err := commit(ctx)
	elapsed := time.Since(start)

	if !c.Active() {
		c.logger.Debug("mutation resolved after close, dropped", "action", action, "err", err)
		return domain.ErrDisposed
	}
	c.emitMutation(action, count, elapsed, err)

	if err != nil {
		c.logger.Warn("mutation failed", "action", action, "count", count, "err", err)
		if !cb.Quiet {
			c.notify(domain.NotifyError, fmt.Sprintf("%s on %s failed: %v", action, c.collection, err))
		}
		merr := &domain.MutationError{Collection: c.collection, Action: action, Err: err}
		cb.failure(merr)
		return merr
	}

	if err := c.reconcile(ctx, action); err != nil {
		if !errors.Is(err, domain.ErrDisposed) {
			cb.failure(err)
		}
		return err
	}

	c.logger.Info("mutation applied", "action", action, "count", count)
	if !cb.Quiet {
		c.notify(domain.NotifySuccess, successMessage(action, c.collection, count))
	}
	cb.success()
	return nil
}

func successMessage(action, collection string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%s on %s completed", action, collection)
	}
	return fmt.Sprintf("%s applied to %d %s", action, count, collection)
}

func (c *Coordinator[T]) notify(kind domain.NotificationKind, msg string) {
	if c.opts.notifier != nil {
		c.opts.notifier.Notify(kind, msg)
	}
}

func (c *Coordinator[T]) emitFetch(gen uint64, stale, dropped bool, count int, d time.Duration, err error) {
	if c.opts.hooks.OnFetch == nil {
		return
	}
	c.opts.hooks.OnFetch(&domain.FetchEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventFetch},
		Collection: c.collection,
		Generation: gen,
		Stale:      stale,
		Dropped:    dropped,
		Count:      count,
		Duration:   d,
		Err:        err,
	})
}

func (c *Coordinator[T]) emitMutation(action string, count int, d time.Duration, err error) {
	if c.opts.hooks.OnMutation == nil {
		return
	}
	c.opts.hooks.OnMutation(&domain.MutationEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventMutation},
		Collection: c.collection,
		Action:     action,
		Count:      count,
		Duration:   d,
		Err:        err,
	})
}
