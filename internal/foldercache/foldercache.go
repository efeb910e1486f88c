package foldercache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix namespaces folder entries in Redis.
	keyPrefix = "formdrop:folder:"
	// entryTTL keeps entries from outliving a folder that was renamed or
	// trashed out of band.
	entryTTL = 24 * time.Hour

	opTimeout = 2 * time.Second
)

// RedisCache maps Drive folder names to resolved folder ids. Repeat uploads
// to a named folder skip the search call, and the search-then-create race
// window shrinks to the first resolution per name.
type RedisCache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("folder cache initialized", "addr", addr)
	return &RedisCache{client: client}, nil
}

// NewWithClient wraps an existing Redis client (for testing).
func NewWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached folder id for name. Cache errors are treated as
// misses; the caller falls back to the search call.
func (c *RedisCache) Get(name string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	id, err := c.client.Get(ctx, keyPrefix+name).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Warn("folder cache read failed", "name", name, "error", err)
		return "", false
	}
	return id, true
}

// Put stores a resolved folder id. Failures are logged, not surfaced: the
// cache is an optimization, never a correctness dependency.
func (c *RedisCache) Put(name string, id string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, keyPrefix+name, id, entryTTL).Err(); err != nil {
		slog.Warn("folder cache write failed", "name", name, "error", err)
	}
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
