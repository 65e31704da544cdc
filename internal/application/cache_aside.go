package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/metrics"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// readThrough is the shared cache-aside read: return the cached collection if
// present and unexpired, otherwise fetch from the repository, store with the
// resource-class TTL, and return. Serialization is JSON on both sides of the
// cache boundary.
func readThrough[T any](ctx context.Context, cache domain.CacheStore, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	data, err := cache.GetOrSet(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return zero, err
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to decode cached value for key %q: %w", key, err)
	}
	return value, nil
}

// invalidate removes the given cache keys after a committed write. It runs
// unconditionally as the last step before a mutation returns success. A failed
// delete is retried once; if the retry also fails the error is logged loudly,
// because the stale entry then persists until its TTL expires.
func invalidate(ctx context.Context, logger domain.Logger, cache domain.CacheStore, resource string, keys ...string) {
	err := cache.Delete(ctx, keys...)
	if err != nil {
		logger.Warn(ctx, "Cache invalidation failed, retrying once", "resource", resource, "error", err.Error())
		err = cache.Delete(ctx, keys...)
	}
	if err != nil {
		logger.Error(ctx, "Cache invalidation failed after retry; stale entries persist until TTL expiry",
			"resource", resource, "keys", keys, "error", err.Error())
		return
	}
	metrics.IncrementCacheInvalidation(resource)
}

// invalidatePrefix is invalidate for a whole key prefix.
func invalidatePrefix(ctx context.Context, logger domain.Logger, cache domain.CacheStore, resource string, prefix string) {
	err := cache.DeletePrefix(ctx, prefix)
	if err != nil {
		logger.Warn(ctx, "Cache prefix invalidation failed, retrying once", "resource", resource, "error", err.Error())
		err = cache.DeletePrefix(ctx, prefix)
	}
	if err != nil {
		logger.Error(ctx, "Cache prefix invalidation failed after retry; stale entries persist until TTL expiry",
			"resource", resource, "prefix", prefix, "error", err.Error())
		return
	}
	metrics.IncrementCacheInvalidation(resource)
}
