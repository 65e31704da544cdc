package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/contextkeys"
)

const authorizationHeader = "Authorization"

// BearerAuthMiddleware creates a middleware for access credential authentication.
// It extracts the bearer token from the Authorization header, validates it
// through AuthService, and injects the AuthenticatedUser into the request
// context. A missing or invalid credential returns 401 Unauthorized with the
// standard error body; an expired one returns 401 with the SessionExpired code
// so clients know to attempt a refresh.
func BearerAuthMiddleware(authService *application.AuthService, logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				logger.Warn(r.Context(), "Authentication failed: bearer token missing", "path", r.URL.Path)
				errResp := domain.NewErrorResponse(domain.ErrCodeUnauthenticated, "Access credential is required", "Provide a bearer token in the Authorization header.")
				errResp.WriteJSON(w, http.StatusUnauthorized)
				return
			}

			user, err := authService.VerifyAccess(r.Context(), token)
			if err != nil {
				logger.Warn(r.Context(), "Authentication failed", "path", r.URL.Path, "error", err.Error())
				if errors.Is(err, application.ErrTokenExpired) {
					errResp := domain.NewErrorResponse(domain.ErrCodeSessionExpired, "Access credential has expired", "Refresh the session and retry.")
					errResp.WriteJSON(w, http.StatusUnauthorized)
					return
				}
				errResp := domain.NewErrorResponse(domain.ErrCodeUnauthenticated, "Access credential is invalid", "")
				errResp.WriteJSON(w, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), contextkeys.AuthUserKey, user)
			ctx = context.WithValue(ctx, contextkeys.UserIDKey, user.UserID.String())
			ctx = context.WithValue(ctx, contextkeys.IsAdminKey, user.IsAdmin)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnlyMiddleware rejects requests whose authenticated user lacks the
// admin flag. It must run after BearerAuthMiddleware.
func AdminOnlyMiddleware(logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(contextkeys.AuthUserKey).(*domain.AuthenticatedUser)
			if !ok || !user.IsAdmin {
				logger.Warn(r.Context(), "Admin check failed", "path", r.URL.Path)
				errResp := domain.NewErrorResponse(domain.ErrCodeForbidden, "Admin privileges required", "")
				errResp.WriteJSON(w, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthenticatedUserFromContext returns the user injected by BearerAuthMiddleware.
func AuthenticatedUserFromContext(ctx context.Context) (*domain.AuthenticatedUser, bool) {
	user, ok := ctx.Value(contextkeys.AuthUserKey).(*domain.AuthenticatedUser)
	return user, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get(authorizationHeader)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
