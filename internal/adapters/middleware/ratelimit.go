package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// RateLimiter gates requests per subject inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, scope, subject string, limit int) (bool, error)
}

// RateLimitMiddleware creates a middleware limiting requests per client IP for
// the given scope. Intended for the unauthenticated auth endpoints where the
// subject cannot be a user ID yet. Over-limit requests get 429 with a
// Retry-After hint.
func RateLimitMiddleware(limiter RateLimiter, cfgProvider config.Provider, logger domain.Logger, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := cfgProvider.Get().Auth.LoginRateLimitPerMinute
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			subject := clientIP(r)
			allowed, err := limiter.Allow(r.Context(), scope, subject, limit)
			if err != nil {
				// The limiter already falls open on store errors; this is a
				// second guard so a limiter bug never blocks logins.
				logger.Error(r.Context(), "Rate limiter error, allowing request", "scope", scope, "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				logger.Warn(r.Context(), "Rate limit exceeded", "scope", scope, "subject", subject)
				w.Header().Set("Retry-After", strconv.Itoa(60))
				errResp := domain.NewErrorResponse(domain.ErrCodeRateLimited, "Too many requests", "Retry after the indicated delay.")
				errResp.WriteJSON(w, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx > 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
