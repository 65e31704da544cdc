package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]string)}
}

func (s *fakeTokenStore) Save(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = userID
	return nil
}

func (s *fakeTokenStore) Consume(ctx context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tokens[tokenHash]
	if !ok {
		return "", domain.ErrNotFound
	}
	delete(s.tokens, tokenHash)
	return userID, nil
}

func (s *fakeTokenStore) Revoke(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenHash)
	return nil
}

func (s *fakeTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeProfiles, *fakeTokenStore) {
	t.Helper()
	profiles := newFakeProfiles(nil)
	tokens := newFakeTokenStore()
	service := NewAuthService(nopLogger{}, testConfig(), profiles, tokens)
	return service, profiles, tokens
}

func seedUser(t *testing.T, profiles *fakeProfiles, email, password string, isAdmin bool) uuid.UUID {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	id := uuid.New()
	require.NoError(t, profiles.Create(context.Background(), &domain.Profile{
		ID:           id,
		Email:        email,
		Name:         "test user",
		IsAdmin:      isAdmin,
		PasswordHash: string(hash),
	}))
	return id
}

func TestAuthService_LoginIssuesVerifiablePair(t *testing.T) {
	service, profiles, tokens := newAuthFixture(t)
	userID := seedUser(t, profiles, "ada@example.com", "password123", false)
	ctx := context.Background()

	pair, err := service.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.ExpiresAt.After(time.Now()))
	assert.Equal(t, 1, tokens.count())

	user, err := service.VerifyAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, user.UserID)
	assert.False(t, user.IsAdmin)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	service, profiles, _ := newAuthFixture(t)
	seedUser(t, profiles, "ada@example.com", "password123", false)
	ctx := context.Background()

	_, unknownErr := service.Login(ctx, "nobody@example.com", "password123")
	_, wrongErr := service.Login(ctx, "ada@example.com", "wrong-password")

	assert.ErrorIs(t, unknownErr, domain.ErrUnauthenticated)
	assert.ErrorIs(t, wrongErr, domain.ErrUnauthenticated)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestAuthService_LoginRequiresCredentials(t *testing.T) {
	service, _, _ := newAuthFixture(t)

	_, err := service.Login(context.Background(), "", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = service.Login(context.Background(), "ada@example.com", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAuthService_RefreshRotatesAndConsumes(t *testing.T) {
	service, profiles, _ := newAuthFixture(t)
	userID := seedUser(t, profiles, "ada@example.com", "password123", true)
	ctx := context.Background()

	pair, err := service.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)

	rotated, err := service.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	user, err := service.VerifyAccess(ctx, rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, user.UserID)
	assert.True(t, user.IsAdmin)

	// The old refresh credential was consumed by the rotation.
	_, err = service.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthService_RefreshUnknownToken(t *testing.T) {
	service, _, _ := newAuthFixture(t)

	_, err := service.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = service.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	service, profiles, tokens := newAuthFixture(t)
	seedUser(t, profiles, "ada@example.com", "password123", false)
	ctx := context.Background()

	pair, err := service.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, pair.RefreshToken))
	assert.Equal(t, 0, tokens.count())
	require.NoError(t, service.Logout(ctx, pair.RefreshToken))
	require.NoError(t, service.Logout(ctx, ""))

	// A revoked credential no longer rotates.
	_, err = service.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthService_VerifyAccessRejectsExpired(t *testing.T) {
	service, _, _ := newAuthFixture(t)
	secret := testConfig().Get().Auth.JWTSecret

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: uuid.NewString(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = service.VerifyAccess(context.Background(), signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthService_VerifyAccessRejectsInvalid(t *testing.T) {
	service, _, _ := newAuthFixture(t)

	_, err := service.VerifyAccess(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// A token signed with the wrong secret is invalid, not expired.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: uuid.NewString(),
	})
	signed, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	_, err = service.VerifyAccess(context.Background(), signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthService_VerifyAccessRequiresSecret(t *testing.T) {
	cfg := &stubConfig{cfg: config.Config{}}
	service := NewAuthService(nopLogger{}, cfg, newFakeProfiles(nil), newFakeTokenStore())

	_, err := service.VerifyAccess(context.Background(), "anything")
	assert.Error(t, err)
}
