package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthenticatedUser holds the validated claims of an access credential.
// This information is added to the request context after successful authentication.
type AuthenticatedUser struct {
	UserID    uuid.UUID `json:"user_id"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenPair bundles a short-lived access credential and a longer-lived refresh
// credential. The pair is replaced atomically on refresh; the refresh token is
// never sent except to the refresh endpoint, and only its hash is persisted
// server-side.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
