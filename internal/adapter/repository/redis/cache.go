package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLookupTTL bounds how long lookups of a finished run stay in Redis.
const DefaultLookupTTL = 24 * time.Hour

// LookupCache implements the run-scoped Stripe lookup cache using Redis.
// Keys are namespaced by run, so lookups of one run never leak into another.
type LookupCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewLookupCache creates a LookupCache for runID.
func NewLookupCache(client *redis.Client, runID string, ttl time.Duration) *LookupCache {
	if ttl <= 0 {
		ttl = DefaultLookupTTL
	}
	return &LookupCache{
		client: client,
		prefix: "lookup:" + runID + ":",
		ttl:    ttl,
	}
}

// Get retrieves a value by key.
func (c *LookupCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// SetNX sets a value only if it doesn't exist. The TTL is set once and never
// refreshed, so a value is not evicted while its run is active.
func (c *LookupCache) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	return c.client.SetNX(ctx, c.prefix+key, value, c.ttl).Result()
}
