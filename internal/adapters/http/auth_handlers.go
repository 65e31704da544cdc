package http

import (
	"net/http"

	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// XRefreshTokenHeader carries the refresh credential. Keeping it out of the
// Authorization header means proxies logging bearer tokens never see it.
const XRefreshTokenHeader = "X-Refresh-Token"

// LoginRequest is the expected payload for the /auth/login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPairResponse is returned by login and refresh.
type TokenPairResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

// LoginHandler authenticates an email/password pair and establishes a session.
// The access credential travels in the body; the refresh credential only in
// the X-Refresh-Token response header.
func LoginHandler(authService *application.AuthService, logger domain.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(r.Context(), logger, w, err)
			return
		}
		if req.Email == "" || req.Password == "" {
			domain.NewErrorResponse(domain.ErrCodeInvalidArgument, "Invalid payload", "email and password are required.").WriteJSON(w, http.StatusBadRequest)
			return
		}

		pair, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(r.Context(), logger, w, err)
			return
		}

		w.Header().Set(XRefreshTokenHeader, pair.RefreshToken)
		writeJSON(w, http.StatusOK, TokenPairResponse{
			AccessToken: pair.AccessToken,
			ExpiresAt:   pair.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
}

// RefreshHandler rotates the refresh credential and issues a fresh pair.
// The spent credential arrives in the X-Refresh-Token request header.
func RefreshHandler(authService *application.AuthService, logger domain.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := r.Header.Get(XRefreshTokenHeader)
		if refreshToken == "" {
			domain.NewErrorResponse(domain.ErrCodeUnauthenticated, "Refresh credential is required", "Provide it in the X-Refresh-Token header.").WriteJSON(w, http.StatusUnauthorized)
			return
		}

		pair, err := authService.Refresh(r.Context(), refreshToken)
		if err != nil {
			writeError(r.Context(), logger, w, err)
			return
		}

		w.Header().Set(XRefreshTokenHeader, pair.RefreshToken)
		writeJSON(w, http.StatusOK, TokenPairResponse{
			AccessToken: pair.AccessToken,
			ExpiresAt:   pair.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
}

// LogoutHandler revokes the refresh credential. Revoking an already spent or
// unknown credential still returns success.
func LogoutHandler(authService *application.AuthService, logger domain.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := r.Header.Get(XRefreshTokenHeader)
		if refreshToken != "" {
			if err := authService.Logout(r.Context(), refreshToken); err != nil {
				writeError(r.Context(), logger, w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, mutationAccepted)
	}
}
