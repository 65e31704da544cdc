package memcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Fatal(ctx context.Context, msg string, args ...any) {}
func (l nopLogger) With(args ...any) domain.Logger                   { return l }

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	// No janitor; expiry is exercised through the swappable clock.
	return NewMemoryCache(context.Background(), nopLogger{}, 0)
}

func TestMemoryCache_SetGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "cart:u1:items", []byte(`[1,2]`), time.Minute))

	value, err := cache.Get(ctx, "cart:u1:items")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1,2]`), value)
}

func TestMemoryCache_GetMiss(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Get(context.Background(), "cart:unknown:items")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	current := time.Now()
	cache.now = func() time.Time { return current }

	require.NoError(t, cache.Set(ctx, "profile:u1", []byte(`{}`), 30*time.Second))

	_, err := cache.Get(ctx, "profile:u1")
	require.NoError(t, err)

	// One second past the deadline the entry behaves as absent.
	current = current.Add(31 * time.Second)
	_, err = cache.Get(ctx, "profile:u1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "cart:u1:items", []byte(`a`), time.Minute))
	require.NoError(t, cache.Set(ctx, "cart:u1:count", []byte(`b`), time.Minute))
	require.NoError(t, cache.Set(ctx, "cart:u2:items", []byte(`c`), time.Minute))
	require.NoError(t, cache.Set(ctx, "favorites:u1", []byte(`d`), time.Minute))

	require.NoError(t, cache.DeletePrefix(ctx, "cart:u1:"))

	_, err := cache.Get(ctx, "cart:u1:items")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	_, err = cache.Get(ctx, "cart:u1:count")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	// Other users and resources are untouched.
	_, err = cache.Get(ctx, "cart:u2:items")
	assert.NoError(t, err)
	_, err = cache.Get(ctx, "favorites:u1")
	assert.NoError(t, err)
}

func TestMemoryCache_GetOrSet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	computes := 0
	compute := func(ctx context.Context) ([]byte, error) {
		computes++
		return []byte(`fresh`), nil
	}

	value, err := cache.GetOrSet(ctx, "promocodes:all", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, []byte(`fresh`), value)
	assert.Equal(t, 1, computes)

	// Second call is served from the cache.
	value, err = cache.GetOrSet(ctx, "promocodes:all", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, []byte(`fresh`), value)
	assert.Equal(t, 1, computes)
}

func TestMemoryCache_GetOrSetComputeError(t *testing.T) {
	cache := newTestCache(t)

	wantErr := errors.New("store down")
	_, err := cache.GetOrSet(context.Background(), "promocodes:all", time.Minute, func(ctx context.Context) ([]byte, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	// A failed compute must not poison the key.
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCache_SweepDropsExpired(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	current := time.Now()
	cache.now = func() time.Time { return current }

	require.NoError(t, cache.Set(ctx, "cart:u1:items", []byte(`a`), time.Second))
	require.NoError(t, cache.Set(ctx, "cart:u2:items", []byte(`b`), time.Hour))

	current = current.Add(2 * time.Second)
	cache.sweep()

	assert.Equal(t, 1, cache.Len())
	_, err := cache.Get(ctx, "cart:u2:items")
	assert.NoError(t, err)
}
