package memcache

import (
	"context"
	"strings"
	"sync"
	"time"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/metrics"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/safego"
)

// entry is one cached value with its per-entry deadline.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache implements domain.CacheStore with a single-process in-memory map.
// Expired entries are treated as absent on read and swept periodically by a
// janitor goroutine. Delete and DeletePrefix take the write lock, so once they
// return no reader can observe the removed values.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  domain.Logger
	now     func() time.Time // swappable in tests
}

// NewMemoryCache creates a MemoryCache and starts its janitor. A non-positive
// cleanupInterval disables background sweeping; expired entries are then only
// dropped lazily on read.
func NewMemoryCache(ctx context.Context, logger domain.Logger, cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]entry),
		logger:  logger,
		now:     time.Now,
	}
	if cleanupInterval > 0 {
		safego.Execute(ctx, logger, "MemoryCacheJanitor", func() {
			c.runJanitor(ctx, cleanupInterval)
		})
	}
	return c
}

// Get retrieves a value. Absent or expired entries return domain.ErrCacheMiss.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		metrics.IncrementCacheMiss(resourceClass(key))
		return nil, domain.ErrCacheMiss
	}
	metrics.IncrementCacheHit(resourceClass(key))
	return e.value, nil
}

// Set stores a value with the given TTL.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// GetOrSet returns the cached value or computes, stores, and returns it.
// compute runs outside the cache lock; concurrent misses on the same key may
// each invoke it, and the last writer wins. That duplication is acceptable for
// read-throughs, unlike the refresh path which is single-flight by design.
func (c *MemoryCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes the given keys.
func (c *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix.
func (c *MemoryCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) runJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info(context.Background(), "MemoryCacheJanitor shutting down due to context cancellation")
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	now := c.now()
	swept := 0
	c.mu.Lock()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			swept++
		}
	}
	c.mu.Unlock()
	if swept > 0 {
		metrics.AddCacheEvictions(float64(swept))
	}
}

// resourceClass extracts the key prefix up to the first ':' for metric labels,
// e.g. "cart:42:items" -> "cart".
func resourceClass(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
