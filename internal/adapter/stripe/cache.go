package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// LookupCache stores looked up objects for the duration of one run.
// The first value written for a key wins.
type LookupCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
}

// MemoryCache is an in-process LookupCache.
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string][]byte)}
}

// Get returns the value stored for key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok, nil
}

// SetNX stores value unless key is already set.
func (c *MemoryCache) SetNX(_ context.Context, key string, value []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	return true, nil
}

// cached returns the value under key, fetching and storing it on a miss.
// When another writer got there first its value is returned instead.
func cached[T any](ctx context.Context, cache LookupCache, key string, fetch func() (*T, error)) (*T, error) {
	if v, ok, err := load[T](ctx, cache, key); err != nil || ok {
		return v, err
	}

	v, err := fetch()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	stored, err := cache.SetNX(ctx, key, raw)
	if err != nil {
		return nil, fmt.Errorf("cache %s: %w", key, err)
	}
	if stored {
		return v, nil
	}

	winner, ok, err := load[T](ctx, cache, key)
	if err != nil || !ok {
		return v, err
	}
	return winner, nil
}

func load[T any](ctx context.Context, cache LookupCache, key string) (*T, bool, error) {
	raw, ok, err := cache.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("cache %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, true, nil
}
