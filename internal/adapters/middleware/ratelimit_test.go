package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubLimiter struct {
	allowed  bool
	err      error
	subjects []string
}

func (l *stubLimiter) Allow(ctx context.Context, scope, subject string, limit int) (bool, error) {
	l.subjects = append(l.subjects, subject)
	return l.allowed, l.err
}

func limitedConfig(limit int) *stubConfig {
	cfg := &stubConfig{}
	cfg.cfg.Auth.LoginRateLimitPerMinute = limit
	return cfg
}

func TestRateLimitMiddleware_OverLimit(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	handler := RateLimitMiddleware(limiter, limitedConfig(5), nopLogger{}, "login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "203.0.113.9:4711"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, []string{"203.0.113.9"}, limiter.subjects)
}

func TestRateLimitMiddleware_AllowedAndForwardedFor(t *testing.T) {
	limiter := &stubLimiter{allowed: true}
	var called bool
	handler := RateLimitMiddleware(limiter, limitedConfig(5), nopLogger{}, "login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, []string{"198.51.100.7"}, limiter.subjects)
}

func TestRateLimitMiddleware_DisabledByConfig(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	var called bool
	handler := RateLimitMiddleware(limiter, limitedConfig(0), nopLogger{}, "login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))

	assert.True(t, called)
	assert.Empty(t, limiter.subjects, "limiter is never consulted when disabled")
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	limiter := &stubLimiter{allowed: false, err: errors.New("store down")}
	var called bool
	handler := RateLimitMiddleware(limiter, limitedConfig(5), nopLogger{}, "login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))

	assert.True(t, called, "limiter failure must not block logins")
}
