package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/contextkeys"
)

const testSecret = "middleware-test-secret"

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Fatal(ctx context.Context, msg string, args ...any) {}
func (l nopLogger) With(args ...any) domain.Logger                   { return l }

type stubConfig struct {
	cfg config.Config
}

func (s *stubConfig) Get() *config.Config { return &s.cfg }

func newVerifier(t *testing.T) *application.AuthService {
	t.Helper()
	cfg := &stubConfig{}
	cfg.cfg.Auth.JWTSecret = testSecret
	// Verification never touches the profile repository or the token store.
	return application.NewAuthService(nopLogger{}, cfg, nil, nil)
}

func signToken(t *testing.T, userID uuid.UUID, isAdmin bool, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid": userID.String(),
		"exp": jwt.NewNumericDate(time.Now().Add(expiresIn)),
		"iat": jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}
	if isAdmin {
		claims["adm"] = true
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) domain.ErrorCode {
	t.Helper()
	var body domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestBearerAuthMiddleware_InjectsUser(t *testing.T) {
	userID := uuid.New()
	var seen *domain.AuthenticatedUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = AuthenticatedUserFromContext(r.Context())
		assert.Equal(t, userID.String(), r.Context().Value(contextkeys.UserIDKey))
		w.WriteHeader(http.StatusOK)
	})
	handler := BearerAuthMiddleware(newVerifier(t), nopLogger{})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, false, time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, userID, seen.UserID)
	assert.False(t, seen.IsAdmin)
}

func TestBearerAuthMiddleware_MissingToken(t *testing.T) {
	handler := BearerAuthMiddleware(newVerifier(t), nopLogger{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, domain.ErrCodeUnauthenticated, decodeErrorCode(t, rec))
}

func TestBearerAuthMiddleware_ExpiredToken(t *testing.T) {
	handler := BearerAuthMiddleware(newVerifier(t), nopLogger{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), false, -time.Minute))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, domain.ErrCodeSessionExpired, decodeErrorCode(t, rec), "expired credentials signal the client to refresh")
}

func TestBearerAuthMiddleware_GarbageToken(t *testing.T) {
	handler := BearerAuthMiddleware(newVerifier(t), nopLogger{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, domain.ErrCodeUnauthenticated, decodeErrorCode(t, rec))
}

func TestAdminOnlyMiddleware(t *testing.T) {
	auth := BearerAuthMiddleware(newVerifier(t), nopLogger{})
	admin := AdminOnlyMiddleware(nopLogger{})
	handler := auth(admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/promocodes/changes", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), false, time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.ErrCodeForbidden, decodeErrorCode(t, rec))

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/promocodes/changes", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), true, time.Hour))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	var fromCtx string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx, _ = r.Context().Value(contextkeys.RequestIDKey).(string)
	}))

	// A caller-provided request id is carried through untouched.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "caller-id-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id-1", fromCtx)
	assert.Equal(t, "caller-id-1", rec.Header().Get("X-Request-ID"))

	// Without one, the middleware mints a uuid.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	_, err := uuid.Parse(fromCtx)
	assert.NoError(t, err)
	assert.Equal(t, fromCtx, rec.Header().Get("X-Request-ID"))
}
