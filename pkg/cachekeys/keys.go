package cachekeys

import (
	"fmt"

	"github.com/google/uuid"
)

// Cache keys are deterministic from (prefix, resource identity) so that a
// user's whole collection can be invalidated with one prefix delete.

// CartPrefix returns the cache key prefix covering every cart entry of a user.
func CartPrefix(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", userID)
}

// CartKey generates the cache key for a user's cart collection.
func CartKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s:items", userID)
}

// CartCountKey generates the cache key for a user's cart item count.
func CartCountKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s:count", userID)
}

// FavoritesPrefix returns the cache key prefix covering a user's favorites.
func FavoritesPrefix(userID uuid.UUID) string {
	return fmt.Sprintf("favorites:%s", userID)
}

// FavoritesKey generates the cache key for a user's favorites collection.
func FavoritesKey(userID uuid.UUID) string {
	return fmt.Sprintf("favorites:%s:items", userID)
}

// ProfileKey generates the cache key for a user's profile.
func ProfileKey(userID uuid.UUID) string {
	return fmt.Sprintf("profile:%s", userID)
}

// PromocodesKey is the cache key for the global active promocode collection.
// Promocodes are admin-owned and shared by all users.
const PromocodesKey = "promocodes:all"

// PromocodesPrefix covers every promocode-derived cache entry.
const PromocodesPrefix = "promocodes:"

// OrdersPrefix returns the cache key prefix covering a user's orders.
func OrdersPrefix(userID uuid.UUID) string {
	return fmt.Sprintf("orders:%s", userID)
}

// OrdersKey generates the cache key for a user's order history.
func OrdersKey(userID uuid.UUID) string {
	return fmt.Sprintf("orders:%s:list", userID)
}

// RefreshTokenKey generates the Redis key for a stored (hashed) refresh token.
func RefreshTokenKey(tokenHash string) string {
	return fmt.Sprintf("refresh_token:%s", tokenHash)
}

// RateLimitKey generates the Redis key for a fixed-window rate limit counter.
func RateLimitKey(scope, subject string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, subject, window)
}
