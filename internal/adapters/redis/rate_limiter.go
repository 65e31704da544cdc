package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/cachekeys"
)

// RateLimiterAdapter is a fixed-window counter for abuse-sensitive endpoints
// (login, refresh). INCR and EXPIRE run in one atomic script so a crashed
// caller can never leave an unexpiring counter behind.
type RateLimiterAdapter struct {
	redisClient *redis.Client
	logger      domain.Logger
}

// NewRateLimiterAdapter creates a new RateLimiterAdapter.
func NewRateLimiterAdapter(redisClient *redis.Client, logger domain.Logger) *RateLimiterAdapter {
	return &RateLimiterAdapter{
		redisClient: redisClient,
		logger:      logger,
	}
}

const incrWithExpireScript = `
	local current = redis.call("incr", KEYS[1])
	if current == 1 then
		redis.call("expire", KEYS[1], ARGV[1])
	end
	return current
`

// Allow reports whether the subject may perform another action within the
// current one-minute window of the given scope. On Redis failure the request
// is allowed; availability wins over strictness here, and the failure is logged.
func (a *RateLimiterAdapter) Allow(ctx context.Context, scope, subject string, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	window := time.Now().Unix() / 60
	key := cachekeys.RateLimitKey(scope, subject, window)

	count, err := a.redisClient.Eval(ctx, incrWithExpireScript, []string{key}, 60).Int64()
	if err != nil {
		a.logger.Error(ctx, "Rate limit counter failed, allowing request", "key", key, "error", err.Error())
		return true, fmt.Errorf("redis EVAL for rate limit key '%s' failed: %w", key, err)
	}

	allowed := count <= int64(limit)
	if !allowed {
		a.logger.Warn(ctx, "Rate limit exceeded", "scope", scope, "subject", subject, "count", count, "limit", limit)
	}
	return allowed, nil
}
