package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Cache.Get for absent or expired keys.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) (Rates, error)
	Put(ctx context.Context, key string, rates Rates, expiresAt time.Time) error
}

type memoryEntry struct {
	rates     Rates
	expiresAt time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{now: now, entries: map[string]memoryEntry{}}
}

var _ Cache = (*MemoryCache)(nil)

func (c *MemoryCache) Get(_ context.Context, key string) (Rates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Rates{}, ErrMiss
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return Rates{}, ErrMiss
	}
	return e.rates, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, rates Rates, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{rates: rates, expiresAt: expiresAt}
	return nil
}

// RedisCache stores rates as JSON with a server-side absolute expiry.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache parses url, pings the server and returns a ready cache.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisCache{client: c}, nil
}

var _ Cache = (*RedisCache)(nil)

func (r *RedisCache) Get(ctx context.Context, key string) (Rates, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Rates{}, ErrMiss
	}
	if err != nil {
		return Rates{}, err
	}
	var rates Rates
	if err := json.Unmarshal(raw, &rates); err != nil {
		return Rates{}, ErrMiss
	}
	return rates, nil
}

func (r *RedisCache) Put(ctx context.Context, key string, rates Rates, expiresAt time.Time) error {
	raw, err := json.Marshal(rates)
	if err != nil {
		return err
	}
	return r.client.SetArgs(ctx, key, raw, redis.SetArgs{ExpireAt: expiresAt}).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
