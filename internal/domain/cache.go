package domain

import (
	"context"
	"time"
)

// CacheStore defines the interface for the single-process read-through cache
// fronting per-user collections. Values are opaque byte slices; callers own
// serialization. Keys are deterministic from (prefix, resource identity), see
// pkg/cachekeys.
type CacheStore interface {
	// Get retrieves a value. Absent or expired entries return ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a per-entry TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// GetOrSet returns the cached value if present and unexpired; otherwise it
	// invokes compute, stores the result under key with the given TTL, and
	// returns it. Concurrent misses on the same key may each invoke compute;
	// a duplicated read-through is an efficiency loss, not a correctness hazard.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error)

	// Delete removes the given keys. Once Delete returns, no subsequent
	// GetOrSet on those keys may observe the pre-delete value.
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix removes every entry whose key starts with prefix, with the
	// same synchronous visibility guarantee as Delete.
	DeletePrefix(ctx context.Context, prefix string) error
}

// RefreshTokenStore persists hashed refresh credentials with a TTL.
type RefreshTokenStore interface {
	// Save stores a refresh token hash bound to a user for the given TTL.
	Save(ctx context.Context, tokenHash string, userID string, ttl time.Duration) error

	// Consume atomically fetches and deletes a refresh token hash, returning
	// the bound user ID. Unknown or expired hashes return ErrNotFound.
	// One refresh credential is therefore good for exactly one rotation.
	Consume(ctx context.Context, tokenHash string) (string, error)

	// Revoke deletes a refresh token hash. Revoking an absent hash is a no-op.
	Revoke(ctx context.Context, tokenHash string) error
}
