// Package cache provides Redis caching for the ranking aggregates.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client. A Cache with a nil client is valid and
// behaves as a permanent miss, so callers never need to branch on
// availability.
type Cache struct {
	client *redis.Client
}

// New connects to Redis at addr (host:port or redis:// URL). Connection
// failures are logged and yield a disabled cache rather than an error.
func New(addr string) *Cache {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Printf("Redis connection warning: invalid REDIS_URL %q: %v (continuing without cache)", addr, err)
			return &Cache{}
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without cache)", err)
		return &Cache{}
	}

	log.Println("Redis connected successfully")
	return &Cache{client: client}
}

// NewWithClient wraps an existing Redis client. Used by tests.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled reports whether a Redis connection is available.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON loads the value stored under key into dest. Returns false on
// miss, disabled cache, or any Redis/decoding error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache get %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("cache decode %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON stores v under key with the given TTL. Errors are logged, never
// propagated; the cache is best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache encode %s: %v", key, err)
		return
	}

	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}
