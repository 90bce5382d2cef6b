package session

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
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.InstanceStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks

	locker  ports.SessionLocker
	lockTTL time.Duration
	newID   func() string
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.SessionLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithIDGenerator replaces the UUID generator of new sessions.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new session manager over store.
func NewManager(store ports.InstanceStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		newID:   uuid.NewString,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Start stores a new instance under a fresh session id.
func (m *Manager) Start(ctx context.Context, instance *domain.WorkflowInstance) (string, error) {
	id := m.newID()
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		if err := m.store.Save(ctx, id, instance); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	m.logger.Debug("session started", "session_id", id, "workflow", instance.Workflow)
	return id, nil
}

// Load retrieves an existing session.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.WorkflowInstance, error) {
	var inst *domain.WorkflowInstance
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		inst, err = m.store.Load(ctx, sessionID)
		return err
	})
	return inst, err
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, sessionID string, instance *domain.WorkflowInstance) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, instance)
	})
}

// Delete removes the session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Update runs fn on the stored instance under the session lock.
// A non-nil instance returned by fn is saved; a nil one deletes the session.
// The instance is persisted even when fn fails, so that state changes caused
// by the failure (a failed commit, validation errors) survive.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(context.Context, *domain.WorkflowInstance) (*domain.WorkflowInstance, error)) (*domain.WorkflowInstance, error) {
	var out *domain.WorkflowInstance
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		inst, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		next, fnErr := fn(ctx, inst)
		if next == nil {
			if err := m.store.Delete(ctx, sessionID); err != nil {
				return errors.Join(fnErr, fmt.Errorf("failed to close session: %w", err))
			}
			return fnErr
		}
		if err := m.store.Save(ctx, sessionID, next); err != nil {
			return errors.Join(fnErr, fmt.Errorf("failed to save session: %w", err))
		}
		out = next
		return fnErr
	})
	return out, err
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
