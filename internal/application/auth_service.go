package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/adapters/metrics"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/crypto"
)

var (
	ErrTokenInvalid = errors.New("access token is invalid")
	ErrTokenExpired = errors.New("access token has expired")
)

const refreshTokenBytes = 32

// accessClaims are the JWT claims of an access credential.
type accessClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	IsAdmin bool   `json:"adm,omitempty"`
}

// AuthService is the credential store: it issues short-lived JWT access
// credentials and opaque refresh credentials, validates and rotates them.
// Refresh credentials are stored hashed with a TTL and consumed on rotation.
type AuthService struct {
	logger   domain.Logger
	config   config.Provider
	profiles domain.ProfileRepository
	tokens   domain.RefreshTokenStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(logger domain.Logger, cfg config.Provider, profiles domain.ProfileRepository, tokens domain.RefreshTokenStore) *AuthService {
	if logger == nil {
		panic("logger is nil in NewAuthService")
	}
	if cfg == nil {
		panic("config provider is nil in NewAuthService")
	}
	return &AuthService{
		logger:   logger,
		config:   cfg,
		profiles: profiles,
		tokens:   tokens,
	}
}

func (s *AuthService) accessTTL() time.Duration {
	seconds := s.config.Get().Auth.AccessTokenTTLSeconds
	if seconds <= 0 {
		seconds = 900 // 15 minutes
	}
	return time.Duration(seconds) * time.Second
}

func (s *AuthService) refreshTTL() time.Duration {
	seconds := s.config.Get().Auth.RefreshTokenTTLSeconds
	if seconds <= 0 {
		seconds = 30 * 24 * 3600 // 30 days
	}
	return time.Duration(seconds) * time.Second
}

// Login verifies the credentials and issues a fresh credential pair.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrInvalidArgument)
	}

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		s.logger.Warn(ctx, "Login failed: password mismatch", "email", email)
		return nil, domain.ErrUnauthenticated
	}

	pair, err := s.issuePair(ctx, profile.ID, profile.IsAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Login successful", "user_id", profile.ID.String())
	return pair, nil
}

// Refresh rotates a refresh credential: the presented token is consumed and a
// completely new pair is issued. Unknown, expired, or already-consumed tokens
// return ErrUnauthenticated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.ErrUnauthenticated
	}

	userIDStr, err := s.tokens.Consume(ctx, crypto.Sha256Hex(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncrementTokenRefresh("failure")
			s.logger.Warn(ctx, "Refresh failed: token unknown or already consumed")
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("stored refresh token has malformed user id: %w", err)
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncrementTokenRefresh("failure")
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to look up profile for refresh: %w", err)
	}

	pair, err := s.issuePair(ctx, profile.ID, profile.IsAdmin)
	if err != nil {
		return nil, err
	}
	metrics.IncrementTokenRefresh("success")
	s.logger.Info(ctx, "Credential pair rotated", "user_id", profile.ID.String())
	return pair, nil
}

// Logout revokes the presented refresh credential. Revoking an unknown token
// succeeds; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, crypto.Sha256Hex(refreshToken))
}

// VerifyAccess parses and validates an access credential and returns its claims.
func (s *AuthService) VerifyAccess(ctx context.Context, accessToken string) (*domain.AuthenticatedUser, error) {
	secret := s.config.Get().Auth.JWTSecret
	if secret == "" {
		s.logger.Error(ctx, "JWT secret not configured", "config_key", "auth.jwt_secret")
		return nil, errors.New("application not configured for token verification")
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id claim", ErrTokenInvalid)
	}
	return &domain.AuthenticatedUser{
		UserID:    userID,
		IsAdmin:   claims.IsAdmin,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// issuePair mints an access token and a refresh token, persisting the refresh
// token hash. The pair is returned as one value so callers replace their
// credentials atomically.
func (s *AuthService) issuePair(ctx context.Context, userID uuid.UUID, isAdmin bool) (*domain.TokenPair, error) {
	expiresAt := time.Now().Add(s.accessTTL())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:  userID.String(),
		IsAdmin: isAdmin,
	})
	accessToken, err := token.SignedString([]byte(s.config.Get().Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := crypto.RandomTokenHex(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err := s.tokens.Save(ctx, crypto.Sha256Hex(refreshToken), userID.String(), s.refreshTTL()); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
