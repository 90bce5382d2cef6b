package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/notify"
	"github.com/aretw0/assetflow/pkg/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is an in-memory collection of ids with a fetch function.
type backend struct {
	mu    sync.Mutex
	ids   []string
	fails error
}

func (b *backend) fetch(context.Context, domain.ListQuery) (domain.Page[string], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fails != nil {
		return domain.Page[string]{}, b.fails
	}
	return domain.Page[string]{Items: append([]string(nil), b.ids...), Total: len(b.ids)}, nil
}

func (b *backend) remove(_ context.Context, ids []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := b.ids[:0]
	for _, id := range b.ids {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	b.ids = kept
	return nil
}

func TestCoordinator_Refetch(t *testing.T) {
	b := &backend{ids: []string{"a", "b"}}
	rec := notify.NewRecorder()
	c := reconcile.New("assets", b.fetch, nil, reconcile.WithNotifier(rec))

	require.NoError(t, c.Refetch(context.Background()))
	assert.Equal(t, []string{"a", "b"}, c.Snapshot().Items())
	assert.Equal(t, 2, c.Snapshot().Total())
	assert.True(t, c.Snapshot().Loaded())

	t.Run("Failure Keeps Previous Snapshot", func(t *testing.T) {
		b.fails = errors.New("503")
		err := c.Refetch(context.Background())

		var ferr *domain.FetchError
		require.ErrorAs(t, err, &ferr)
		assert.Equal(t, "assets", ferr.Collection)
		assert.Equal(t, []string{"a", "b"}, c.Snapshot().Items())
		assert.Equal(t, 1, rec.Count(domain.NotifyError))
		b.fails = nil
	})
}

func TestCoordinator_StaleGenerationDiscarded(t *testing.T) {
	slowRelease := make(chan struct{})
	slowEntered := make(chan struct{})
	var calls int
	var mu sync.Mutex

	fetch := func(ctx context.Context, _ domain.ListQuery) (domain.Page[string], error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(slowEntered)
			<-slowRelease
			return domain.Page[string]{Items: []string{"old"}}, nil
		}
		return domain.Page[string]{Items: []string{"new"}}, nil
	}

	var stale []uint64
	hooks := domain.LifecycleHooks{OnFetch: func(e *domain.FetchEvent) {
		if e.Stale {
			stale = append(stale, e.Generation)
		}
	}}
	c := reconcile.New("assets", fetch, nil, reconcile.WithLifecycleHooks(hooks))

	done := make(chan error, 1)
	go func() { done <- c.Refetch(context.Background()) }()
	<-slowEntered

	require.NoError(t, c.Refetch(context.Background()))
	assert.Equal(t, []string{"new"}, c.Snapshot().Items())

	close(slowRelease)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"new"}, c.Snapshot().Items(), "older generation must not overwrite newer data")
	assert.Equal(t, []uint64{1}, stale)
	assert.Equal(t, uint64(2), c.Generation())
}

func TestCoordinator_CloseDropsResults(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	fetch := func(context.Context, domain.ListQuery) (domain.Page[string], error) {
		close(entered)
		<-release
		return domain.Page[string]{Items: []string{"late"}}, nil
	}
	rec := notify.NewRecorder()
	c := reconcile.New("assets", fetch, nil, reconcile.WithNotifier(rec))

	done := make(chan error, 1)
	go func() { done <- c.Refetch(context.Background()) }()
	<-entered
	c.Close()
	close(release)

	assert.ErrorIs(t, <-done, domain.ErrDisposed)
	assert.Empty(t, c.Snapshot().Items())
	assert.False(t, c.Snapshot().Loaded())
	assert.Empty(t, rec.Entries())

	assert.ErrorIs(t, c.Refetch(context.Background()), domain.ErrDisposed)
}

func TestCoordinator_CommitBulk(t *testing.T) {
	t.Run("Success Refetches Then Calls OnSuccess", func(t *testing.T) {
		b := &backend{ids: []string{"a", "b", "c", "d"}}
		rec := notify.NewRecorder()
		c := reconcile.New("assets", b.fetch, nil, reconcile.WithNotifier(rec))
		require.NoError(t, c.Refetch(context.Background()))

		var seenOnSuccess []string
		err := c.CommitBulk(context.Background(), "delete", b.remove, []string{"a", "b", "c"}, reconcile.Callbacks{
			OnSuccess: func() { seenOnSuccess = c.Snapshot().Items() },
			OnFailure: func(error) { t.Fatal("unexpected failure") },
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"d"}, seenOnSuccess, "snapshot already refreshed when OnSuccess runs")
		assert.Equal(t, 1, rec.Count(domain.NotifySuccess))
	})

	t.Run("Failure Leaves Snapshot Untouched", func(t *testing.T) {
		b := &backend{ids: []string{"a", "b"}}
		rec := notify.NewRecorder()
		c := reconcile.New("assets", b.fetch, nil, reconcile.WithNotifier(rec))
		require.NoError(t, c.Refetch(context.Background()))
		version := c.Snapshot().Version()

		var failure error
		boom := errors.New("forbidden")
		err := c.CommitBulk(context.Background(), "delete",
			func(context.Context, []string) error { return boom },
			[]string{"a"},
			reconcile.Callbacks{
				OnSuccess: func() { t.Fatal("unexpected success") },
				OnFailure: func(err error) { failure = err },
			})

		var merr *domain.MutationError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, "delete", merr.Action)
		assert.ErrorIs(t, failure, boom)
		assert.Equal(t, version, c.Snapshot().Version(), "no refetch after a failed mutation")
		assert.Equal(t, 1, rec.Count(domain.NotifyError))
	})

	t.Run("Refetch Failure Skips OnSuccess", func(t *testing.T) {
		b := &backend{ids: []string{"a", "b"}}
		c := reconcile.New("assets", b.fetch, nil)
		require.NoError(t, c.Refetch(context.Background()))

		succeeded := false
		var failure error
		err := c.CommitBulk(context.Background(), "delete",
			func(ctx context.Context, ids []string) error {
				b.fails = errors.New("gateway timeout")
				return nil
			},
			[]string{"a"},
			reconcile.Callbacks{OnSuccess: func() { succeeded = true }, OnFailure: func(err error) { failure = err }})

		var ferr *domain.FetchError
		assert.ErrorAs(t, err, &ferr)
		assert.ErrorAs(t, failure, &ferr)
		assert.False(t, succeeded)
	})

	t.Run("Reentrant Bulk Is Ignored", func(t *testing.T) {
		b := &backend{ids: []string{"a"}}
		c := reconcile.New("assets", b.fetch, nil)

		release := make(chan struct{})
		entered := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- c.CommitBulk(context.Background(), "archive", func(context.Context, []string) error {
				close(entered)
				<-release
				return nil
			}, []string{"a"}, reconcile.Callbacks{})
		}()
		<-entered

		err := c.CommitBulk(context.Background(), "archive", func(context.Context, []string) error {
			t.Fatal("second bulk must not run")
			return nil
		}, []string{"a"}, reconcile.Callbacks{})
		assert.ErrorIs(t, err, domain.ErrReentrant)

		close(release)
		require.NoError(t, <-done)
	})

	t.Run("Empty Ids Is A No-op", func(t *testing.T) {
		c := reconcile.New("assets", (&backend{}).fetch, nil)
		called := false
		err := c.CommitBulk(context.Background(), "delete", func(context.Context, []string) error {
			called = true
			return nil
		}, nil, reconcile.Callbacks{})
		assert.NoError(t, err)
		assert.False(t, called)
	})
}

// supersededBackend blocks the refetch issued by a mutation until a newer
// refresh has resolved with newerErr; later fetches return retryErr or the
// remaining ids.
type supersededBackend struct {
	backend
	calls    int
	entered  chan struct{}
	release  chan struct{}
	newerErr error
	retryErr error
}

func (b *supersededBackend) fetch(ctx context.Context, q domain.ListQuery) (domain.Page[string], error) {
	b.mu.Lock()
	b.calls++
	n := b.calls
	b.mu.Unlock()

	switch n {
	case 2:
		page, err := b.backend.fetch(ctx, q)
		close(b.entered)
		<-b.release
		return page, err
	case 3:
		return domain.Page[string]{}, b.newerErr
	case 4:
		if b.retryErr != nil {
			return domain.Page[string]{}, b.retryErr
		}
	}
	return b.backend.fetch(ctx, q)
}

func TestCoordinator_CommitBulkSupersededRefetch(t *testing.T) {
	run := func(t *testing.T, b *supersededBackend) (*reconcile.Coordinator[string], error, bool, error) {
		b.ids = []string{"a", "b", "c", "d"}
		b.entered = make(chan struct{})
		b.release = make(chan struct{})
		c := reconcile.New("assets", b.fetch, nil)
		require.NoError(t, c.Refetch(context.Background()))

		succeeded := false
		var failure error
		done := make(chan error, 1)
		go func() {
			done <- c.CommitBulk(context.Background(), "delete", b.remove, []string{"a", "b", "c"}, reconcile.Callbacks{
				OnSuccess: func() { succeeded = true },
				OnFailure: func(err error) { failure = err },
			})
		}()
		<-b.entered

		var ferr *domain.FetchError
		require.ErrorAs(t, c.Refetch(context.Background()), &ferr)
		close(b.release)
		return c, <-done, succeeded, failure
	}

	t.Run("Refetch Is Reissued", func(t *testing.T) {
		b := &supersededBackend{newerErr: errors.New("503")}
		c, err, succeeded, failure := run(t, b)

		require.NoError(t, err)
		assert.NoError(t, failure)
		assert.True(t, succeeded)
		assert.Equal(t, []string{"d"}, c.Snapshot().Items())
		assert.Equal(t, 4, b.calls)
	})

	t.Run("Reissued Refetch Failure Skips OnSuccess", func(t *testing.T) {
		b := &supersededBackend{newerErr: errors.New("503"), retryErr: errors.New("504")}
		c, err, succeeded, failure := run(t, b)

		var ferr *domain.FetchError
		assert.ErrorAs(t, err, &ferr)
		assert.ErrorAs(t, failure, &ferr)
		assert.False(t, succeeded, "selection must survive until a refetch lands")
		assert.Equal(t, []string{"a", "b", "c", "d"}, c.Snapshot().Items())
	})
}

func TestCoordinator_CommitSingle(t *testing.T) {
	b := &backend{ids: []string{"a", "b"}}
	c := reconcile.New("assets", b.fetch, nil)

	ok := false
	err := c.CommitSingle(context.Background(), "delete", func(ctx context.Context) error {
		return b.remove(ctx, []string{"b"})
	}, reconcile.Callbacks{OnSuccess: func() { ok = true }})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, c.Snapshot().Items())
}

func TestSnapshot_Subscribe(t *testing.T) {
	s := reconcile.NewSnapshot[int]()
	var got [][]int
	unsubscribe := s.Subscribe(func(items []int) { got = append(got, items) })

	s.Replace(domain.Page[int]{Items: []int{1, 2}})
	unsubscribe()
	s.Replace(domain.Page[int]{Items: []int{3}})

	assert.Equal(t, [][]int{{1, 2}}, got)
	assert.Equal(t, []int{3}, s.Items())
	assert.Equal(t, uint64(2), s.Version())
	assert.Equal(t, 1, s.Total(), "total never below the item count")
}
