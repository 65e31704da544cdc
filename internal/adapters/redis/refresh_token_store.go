package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/cachekeys"
)

// RefreshTokenStoreAdapter implements domain.RefreshTokenStore using Redis.
// Only token hashes are stored, bound to the owning user ID, with the refresh
// TTL as the key TTL so expiry needs no sweeper.
type RefreshTokenStoreAdapter struct {
	redisClient *redis.Client
	logger      domain.Logger
}

// NewRefreshTokenStoreAdapter creates a new instance of RefreshTokenStoreAdapter.
func NewRefreshTokenStoreAdapter(redisClient *redis.Client, logger domain.Logger) *RefreshTokenStoreAdapter {
	if redisClient == nil {
		panic("redisClient cannot be nil in NewRefreshTokenStoreAdapter")
	}
	if logger == nil {
		panic("logger cannot be nil in NewRefreshTokenStoreAdapter")
	}
	return &RefreshTokenStoreAdapter{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Save stores a refresh token hash bound to a user for the given TTL.
func (a *RefreshTokenStoreAdapter) Save(ctx context.Context, tokenHash string, userID string, ttl time.Duration) error {
	key := cachekeys.RefreshTokenKey(tokenHash)
	if err := a.redisClient.Set(ctx, key, userID, ttl).Err(); err != nil {
		a.logger.Error(ctx, "Failed to store refresh token", "key", key, "error", err.Error())
		return fmt.Errorf("redis SET for refresh token failed: %w", err)
	}
	a.logger.Debug(ctx, "Refresh token stored", "key", key, "ttl", ttl.String())
	return nil
}

// Consume atomically fetches and deletes a refresh token hash via GETDEL, so a
// credential rotates exactly once even under concurrent refresh attempts.
func (a *RefreshTokenStoreAdapter) Consume(ctx context.Context, tokenHash string) (string, error) {
	key := cachekeys.RefreshTokenKey(tokenHash)
	userID, err := a.redisClient.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		a.logger.Debug(ctx, "Refresh token not found or already consumed", "key", key)
		return "", domain.ErrNotFound
	}
	if err != nil {
		a.logger.Error(ctx, "Failed to consume refresh token", "key", key, "error", err.Error())
		return "", fmt.Errorf("redis GETDEL for refresh token failed: %w", err)
	}
	a.logger.Debug(ctx, "Refresh token consumed", "key", key, "user_id", userID)
	return userID, nil
}

// Revoke deletes a refresh token hash. Revoking an absent hash is a no-op.
func (a *RefreshTokenStoreAdapter) Revoke(ctx context.Context, tokenHash string) error {
	key := cachekeys.RefreshTokenKey(tokenHash)
	if err := a.redisClient.Del(ctx, key).Err(); err != nil {
		a.logger.Error(ctx, "Failed to revoke refresh token", "key", key, "error", err.Error())
		return fmt.Errorf("redis DEL for refresh token failed: %w", err)
	}
	return nil
}

var _ domain.RefreshTokenStore = (*RefreshTokenStoreAdapter)(nil)
