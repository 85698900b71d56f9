// Package dedupe remembers keys for a while so redelivered events are processed once.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store reports whether a key was already claimed
type Store interface {
	// Claim marks key as seen for ttl and returns true if it was not seen before
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisStore claims keys with SET NX
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOptions
type RedisOptions struct {
	Address  string
	Username string
	Password string
	DB       int
}

// NewRedisStore connects and pings the server
func NewRedisStore(ctx context.Context, opts RedisOptions, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore keeps claims in process memory
type MemoryStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{expires: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, k)
		}
	}
	if _, seen := s.expires[key]; seen {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}
