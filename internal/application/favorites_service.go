package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/cachekeys"
)

// FavoritesService serves the favorites list through the cache and keeps it
// consistent after mutations with write-then-invalidate ordering.
type FavoritesService struct {
	logger  domain.Logger
	config  config.Provider
	repo    domain.FavoritesRepository
	users   domain.ProfileRepository
	catalog domain.ProductCatalog
	cache   domain.CacheStore
	events  domain.EventPublisher
}

// NewFavoritesService creates a FavoritesService.
func NewFavoritesService(
	logger domain.Logger,
	cfg config.Provider,
	repo domain.FavoritesRepository,
	users domain.ProfileRepository,
	catalog domain.ProductCatalog,
	cache domain.CacheStore,
	events domain.EventPublisher,
) *FavoritesService {
	return &FavoritesService{
		logger:  logger,
		config:  cfg,
		repo:    repo,
		users:   users,
		catalog: catalog,
		cache:   cache,
		events:  events,
	}
}

func (s *FavoritesService) ttl() time.Duration {
	seconds := s.config.Get().Cache.FavoritesTTLSeconds
	if seconds <= 0 {
		seconds = 300
	}
	return time.Duration(seconds) * time.Second
}

// Read returns the user's favorites through the cache.
func (s *FavoritesService) Read(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	return readThrough(ctx, s.cache, cachekeys.FavoritesKey(userID), s.ttl(), func(ctx context.Context) ([]domain.Favorite, error) {
		return s.repo.ListByUser(ctx, userID)
	})
}

// Mutate applies a single favorites change. Adding an existing favorite and
// removing an absent one both succeed without effect.
func (s *FavoritesService) Mutate(ctx context.Context, userID uuid.UUID, change domain.FavoriteChange) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	if err := s.applyChange(ctx, userID, change); err != nil {
		return err
	}
	s.invalidateFavorites(ctx, userID)
	emitEvent(ctx, s.events, domain.EventFavoritesChanged, userID, fmt.Sprintf("product:%d", change.ProductID))
	return nil
}

// BatchMutate applies all changes and invalidates once at the end.
func (s *FavoritesService) BatchMutate(ctx context.Context, userID uuid.UUID, changes []domain.FavoriteChange) error {
	if len(changes) == 0 {
		return fmt.Errorf("no changes given: %w", domain.ErrInvalidArgument)
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	for _, change := range changes {
		if err := s.applyChange(ctx, userID, change); err != nil {
			s.invalidateFavorites(ctx, userID)
			return err
		}
	}
	s.invalidateFavorites(ctx, userID)
	emitEvent(ctx, s.events, domain.EventFavoritesChanged, userID, "batch")
	return nil
}

// Status reports which of the given product IDs are favorited.
func (s *FavoritesService) Status(ctx context.Context, userID uuid.UUID, productIDs []int64) (map[int64]bool, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	if len(productIDs) == 0 {
		return map[int64]bool{}, nil
	}
	return s.repo.ExistingProducts(ctx, userID, productIDs)
}

func (s *FavoritesService) ensureUser(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to validate user: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

func (s *FavoritesService) applyChange(ctx context.Context, userID uuid.UUID, change domain.FavoriteChange) error {
	if change.ProductID <= 0 {
		return fmt.Errorf("product id must be positive: %w", domain.ErrInvalidArgument)
	}
	switch change.Kind {
	case domain.FavoriteAdd:
		exists, err := s.catalog.Exists(ctx, change.ProductID)
		if err != nil {
			return fmt.Errorf("failed to validate product: %w", err)
		}
		if !exists {
			return fmt.Errorf("product %d: %w", change.ProductID, domain.ErrNotFound)
		}
		return s.repo.Add(ctx, domain.Favorite{UserID: userID, ProductID: change.ProductID})
	case domain.FavoriteRemove:
		_, err := s.repo.Remove(ctx, userID, change.ProductID)
		return err
	default:
		return fmt.Errorf("unknown favorites change kind %q: %w", change.Kind, domain.ErrInvalidArgument)
	}
}

func (s *FavoritesService) invalidateFavorites(ctx context.Context, userID uuid.UUID) {
	invalidate(ctx, s.logger, s.cache, "favorites", cachekeys.FavoritesKey(userID))
}
