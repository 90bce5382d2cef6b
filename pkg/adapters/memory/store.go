package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/assetflow/pkg/domain"
)

// Store implements ports.InstanceStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.WorkflowInstance
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.WorkflowInstance),
	}
}

// Save keeps a copy of the instance.
func (s *Store) Save(ctx context.Context, sessionID string, instance *domain.WorkflowInstance) error {
	copied := instance.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored instance.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.WorkflowInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return inst.Snapshot(), nil
}

// Delete removes the instance.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the open sessions in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}
