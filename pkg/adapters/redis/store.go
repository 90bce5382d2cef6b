// Package redis hosts wizard sessions in Redis so that several console
// replicas can serve the same session. Entries expire with the session TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/assetflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "assetflow:session:"
	indexKey      = "index"
)

// Store implements ports.InstanceStore on Redis.
// Each snapshot lives at prefix+sessionID; a sorted set at prefix+"index"
// scores session ids by expiry so List can drop stale ids lazily.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL expires sessions after ttl of inactivity. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to addr.
func New(addr, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying client, e.g. to build a Locker on it.
func (s *Store) Client() *backend.Client { return s.client }

func (s *Store) key(sessionID string) string { return s.prefix + sessionID }

func (s *Store) index() string { return s.prefix + indexKey }

// Save writes the snapshot and refreshes its expiry.
func (s *Store) Save(ctx context.Context, sessionID string, instance *domain.WorkflowInstance) error {
	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}

	score := float64(0)
	if s.ttl > 0 {
		score = float64(time.Now().Add(s.ttl).UnixMilli())
	}

	_, err = s.client.TxPipelined(ctx, func(p backend.Pipeliner) error {
		p.Set(ctx, s.key(sessionID), data, s.ttl)
		p.ZAdd(ctx, s.index(), backend.Z{Score: score, Member: sessionID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

// Load reads a snapshot. Missing or expired sessions yield domain.ErrSessionNotFound.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.WorkflowInstance, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var inst domain.WorkflowInstance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	if inst.Values == nil {
		inst.Values = make(domain.Values)
	}
	if inst.Errors == nil {
		inst.Errors = make(domain.FieldErrors)
	}
	return &inst, nil
}

// Delete removes the snapshot and its index entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.client.TxPipelined(ctx, func(p backend.Pipeliner) error {
		p.Del(ctx, s.key(sessionID))
		p.ZRem(ctx, s.index(), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// List returns the live session ids, pruning expired ones from the index.
// Sessions saved without TTL have score 0 and are never pruned.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.index(), "1", now).Err(); err != nil {
		return nil, fmt.Errorf("prune session index: %w", err)
	}
	ids, err := s.client.ZRange(ctx, s.index(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}
