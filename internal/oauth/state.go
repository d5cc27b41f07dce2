// SPDX-License-Identifier: AGPL-3.0-only
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StateTTL bounds how long a user may take on the provider's consent page.
const StateTTL = 10 * time.Minute

// PendingAuth is what a state token resolves to on callback.
type PendingAuth struct {
	Platform  helpers.Platform `json:"platform"`
	UserID    uuid.UUID        `json:"userId"`
	Verifier  string           `json:"verifier,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// StateStore keeps pending authorizations. Take consumes the entry, so a
// state can be redeemed at most once.
type StateStore interface {
	Save(ctx context.Context, state string, pending PendingAuth, ttl time.Duration) error
	Take(ctx context.Context, state string) (PendingAuth, error)
}

type memoryEntry struct {
	pending PendingAuth
	expires time.Time
}

// MemoryStateStore is a process-local StateStore for single-instance deployments.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	Now     func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		entries: make(map[string]memoryEntry),
		Now:     time.Now,
	}
}

func (s *MemoryStateStore) Save(_ context.Context, state string, pending PendingAuth, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	for k, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[state] = memoryEntry{pending: pending, expires: now.Add(ttl)}
	return nil
}

func (s *MemoryStateStore) Take(_ context.Context, state string) (PendingAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return PendingAuth{}, ErrInvalidState
	}
	delete(s.entries, state)
	if s.Now().After(e.expires) {
		return PendingAuth{}, ErrInvalidState
	}
	return e.pending, nil
}

const redisStatePrefix = "socialpulse:oauth:state:"

// RedisStateStore shares pending authorizations across instances.
type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// ConnectRedis accepts either a redis:// URL or a bare host:port.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}

func (s *RedisStateStore) Save(ctx context.Context, state string, pending PendingAuth, ttl time.Duration) error {
	raw, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisStatePrefix+state, raw, ttl).Err()
}

func (s *RedisStateStore) Take(ctx context.Context, state string) (PendingAuth, error) {
	raw, err := s.client.GetDel(ctx, redisStatePrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return PendingAuth{}, ErrInvalidState
		}
		return PendingAuth{}, err
	}

	var pending PendingAuth
	if err := json.Unmarshal(raw, &pending); err != nil {
		return PendingAuth{}, fmt.Errorf("corrupt oauth state: %w", err)
	}
	return pending, nil
}
