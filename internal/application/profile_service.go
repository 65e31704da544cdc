package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/cachekeys"
)

const (
	maxNameLength  = 128
	maxEmailLength = 254
	minPasswordLen = 8
)

// ProfileService serves profile reads through the cache and applies profile
// mutations with write-then-invalidate ordering. Password hashes never leave
// the service: reads go out with the hash field stripped by serialization.
type ProfileService struct {
	logger domain.Logger
	config config.Provider
	repo   domain.ProfileRepository
	cache  domain.CacheStore
	events domain.EventPublisher
}

// NewProfileService creates a ProfileService.
func NewProfileService(
	logger domain.Logger,
	cfg config.Provider,
	repo domain.ProfileRepository,
	cache domain.CacheStore,
	events domain.EventPublisher,
) *ProfileService {
	return &ProfileService{
		logger: logger,
		config: cfg,
		repo:   repo,
		cache:  cache,
		events: events,
	}
}

func (s *ProfileService) ttl() time.Duration {
	seconds := s.config.Get().Cache.ProfileTTLSeconds
	if seconds <= 0 {
		seconds = 600
	}
	return time.Duration(seconds) * time.Second
}

// Read returns the user's profile through the cache.
func (s *ProfileService) Read(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	return readThrough(ctx, s.cache, cachekeys.ProfileKey(userID), s.ttl(), func(ctx context.Context) (*domain.Profile, error) {
		return s.repo.GetByID(ctx, userID)
	})
}

// Mutate applies a single profile change and then invalidates the cached
// profile. An email change to the address already on file succeeds without a
// write.
func (s *ProfileService) Mutate(ctx context.Context, userID uuid.UUID, change domain.ProfileChange) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	if err := s.applyChange(ctx, userID, change); err != nil {
		return err
	}
	s.invalidateProfile(ctx, userID)
	emitEvent(ctx, s.events, domain.EventProfileUpdated, userID, string(change.Kind))
	return nil
}

// BatchMutate applies all changes and invalidates the cached profile once.
func (s *ProfileService) BatchMutate(ctx context.Context, userID uuid.UUID, changes []domain.ProfileChange) error {
	if len(changes) == 0 {
		return fmt.Errorf("no changes given: %w", domain.ErrInvalidArgument)
	}
	if userID == uuid.Nil {
		return fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	for _, change := range changes {
		if err := s.applyChange(ctx, userID, change); err != nil {
			s.invalidateProfile(ctx, userID)
			return err
		}
	}
	s.invalidateProfile(ctx, userID)
	emitEvent(ctx, s.events, domain.EventProfileUpdated, userID, "batch")
	return nil
}

// Status reports which of the given user IDs exist.
func (s *ProfileService) Status(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if len(userIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	return s.repo.ExistingUsers(ctx, userIDs)
}

func (s *ProfileService) applyChange(ctx context.Context, userID uuid.UUID, change domain.ProfileChange) error {
	switch change.Kind {
	case domain.ProfileSetName:
		name := strings.TrimSpace(change.Value)
		if name == "" || len(name) > maxNameLength {
			return fmt.Errorf("name must be 1..%d characters: %w", maxNameLength, domain.ErrInvalidArgument)
		}
		return s.repo.UpdateName(ctx, userID, name)
	case domain.ProfileSetEmail:
		email := strings.ToLower(strings.TrimSpace(change.Value))
		if err := validateEmail(email); err != nil {
			return err
		}
		current, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if current.Email == email {
			return nil
		}
		if other, err := s.repo.GetByEmail(ctx, email); err == nil && other.ID != userID {
			return fmt.Errorf("email already in use: %w", domain.ErrInvalidArgument)
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return s.repo.UpdateEmail(ctx, userID, email)
	case domain.ProfileSetPassword:
		if len(change.Value) < minPasswordLen {
			return fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, domain.ErrInvalidArgument)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(change.Value), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		return s.repo.UpdatePasswordHash(ctx, userID, string(hash))
	default:
		return fmt.Errorf("unknown profile change kind %q: %w", change.Kind, domain.ErrInvalidArgument)
	}
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLength {
		return fmt.Errorf("email must be 1..%d characters: %w", maxEmailLength, domain.ErrInvalidArgument)
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.IndexByte(email[at+1:], '.') <= 0 {
		return fmt.Errorf("email is malformed: %w", domain.ErrInvalidArgument)
	}
	return nil
}

func (s *ProfileService) invalidateProfile(ctx context.Context, userID uuid.UUID) {
	invalidate(ctx, s.logger, s.cache, "profile", cachekeys.ProfileKey(userID))
}
