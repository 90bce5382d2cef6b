package reconcile

import (
	"sync"

	"github.com/aretw0/assetflow/pkg/domain"
)

// Snapshot is the latest fetched copy of a collection.
// It is only ever replaced as a whole; nothing patches it in place.
type Snapshot[T any] struct {
	mu      sync.RWMutex
	items   []T
	total   int
	version uint64
	loaded  bool

	subMu     sync.Mutex
	subs      map[int]func([]T)
	nextID    int
	delivered uint64
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot[T any]() *Snapshot[T] {
	return &Snapshot[T]{subs: make(map[int]func([]T))}
}

// Items returns a copy of the current items.
func (s *Snapshot[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]T(nil), s.items...)
}

// Total returns the server-reported total of the last page.
func (s *Snapshot[T]) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Version increments on every replacement.
func (s *Snapshot[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Loaded reports whether the snapshot was filled at least once.
func (s *Snapshot[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Replace swaps the content and notifies subscribers.
func (s *Snapshot[T]) Replace(page domain.Page[T]) {
	s.publish(s.set(page))
}

// set stores page and returns the new version.
func (s *Snapshot[T]) set(page domain.Page[T]) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]T(nil), page.Items...)
	s.total = page.Total
	if s.total < len(s.items) {
		s.total = len(s.items)
	}
	s.version++
	s.loaded = true
	return s.version
}

// publish delivers the replacement made at version. Deliveries are serialized
// and a version older than one already delivered is skipped, so subscribers
// never step back to an earlier replacement.
func (s *Snapshot[T]) publish(version uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if version <= s.delivered {
		return
	}

	s.mu.RLock()
	current := s.version
	items := append([]T(nil), s.items...)
	s.mu.RUnlock()

	s.delivered = current
	for _, fn := range s.subs {
		fn(items)
	}
}

// Subscribe registers fn to run after every replacement. fn runs with the
// subscription lock held and must not subscribe or unsubscribe.
// The returned function removes the subscription.
func (s *Snapshot[T]) Subscribe(fn func([]T)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}
