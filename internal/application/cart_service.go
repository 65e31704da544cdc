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

// CartService wraps the cart repository with the cache-aside pattern and owns
// invalidation of cart cache entries. Mutations follow write-then-invalidate:
// the durable write commits first, then the aggregate cache key is dropped, so
// a racing reader either sees the pre-mutation view from cache or recomputes
// from the already-updated store, never a repopulation from a stale read.
type CartService struct {
	logger  domain.Logger
	config  config.Provider
	repo    domain.CartRepository
	users   domain.ProfileRepository
	catalog domain.ProductCatalog
	cache   domain.CacheStore
	events  domain.EventPublisher
}

// NewCartService creates a CartService.
func NewCartService(
	logger domain.Logger,
	cfg config.Provider,
	repo domain.CartRepository,
	users domain.ProfileRepository,
	catalog domain.ProductCatalog,
	cache domain.CacheStore,
	events domain.EventPublisher,
) *CartService {
	return &CartService{
		logger:  logger,
		config:  cfg,
		repo:    repo,
		users:   users,
		catalog: catalog,
		cache:   cache,
		events:  events,
	}
}

func (s *CartService) ttl() time.Duration {
	seconds := s.config.Get().Cache.CartTTLSeconds
	if seconds <= 0 {
		seconds = 300 // 5 minutes for user-scoped mutable data
	}
	return time.Duration(seconds) * time.Second
}

// Read returns the user's cart through the cache.
func (s *CartService) Read(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	return readThrough(ctx, s.cache, cachekeys.CartKey(userID), s.ttl(), func(ctx context.Context) ([]domain.CartItem, error) {
		return s.repo.ListByUser(ctx, userID)
	})
}

// Mutate validates and applies one cart change, then invalidates the user's
// cart cache entries as the last step before returning success.
func (s *CartService) Mutate(ctx context.Context, userID uuid.UUID, change domain.CartChange) error {
	if err := s.applyChange(ctx, userID, change, true); err != nil {
		return err
	}
	s.invalidateCart(ctx, userID)
	emitEvent(ctx, s.events, domain.EventCartChanged, userID, fmt.Sprintf("product:%d", change.ProductID))
	return nil
}

// BatchMutate applies every change, then performs a single aggregate
// invalidation. All writes complete before the cache is touched; the guarantee
// only constrains final visibility, not intermediate states.
func (s *CartService) BatchMutate(ctx context.Context, userID uuid.UUID, changes []domain.CartChange) error {
	if len(changes) == 0 {
		return fmt.Errorf("no changes given: %w", domain.ErrInvalidArgument)
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	for _, change := range changes {
		if err := s.applyChange(ctx, userID, change, false); err != nil {
			// Writes already applied stay applied; the invalidation below
			// still runs so readers never see a stale aggregate.
			s.invalidateCart(ctx, userID)
			return err
		}
	}
	s.invalidateCart(ctx, userID)
	emitEvent(ctx, s.events, domain.EventCartChanged, userID, "batch")
	return nil
}

// Status reports which of the given product IDs are currently in the cart.
func (s *CartService) Status(ctx context.Context, userID uuid.UUID, productIDs []int64) (map[int64]bool, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	if len(productIDs) == 0 {
		return map[int64]bool{}, nil
	}
	return s.repo.ExistingProducts(ctx, userID, productIDs)
}

func (s *CartService) ensureUser(ctx context.Context, userID uuid.UUID) error {
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

func (s *CartService) ensureProduct(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return fmt.Errorf("product id must be positive: %w", domain.ErrInvalidArgument)
	}
	exists, err := s.catalog.Exists(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to validate product: %w", err)
	}
	if !exists {
		return fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// applyChange performs the durable write for one change. checkUser is false
// for batch calls where the user was validated once up front.
func (s *CartService) applyChange(ctx context.Context, userID uuid.UUID, change domain.CartChange, checkUser bool) error {
	if checkUser {
		if err := s.ensureUser(ctx, userID); err != nil {
			return err
		}
	}
	switch change.Kind {
	case domain.CartAdd:
		if err := s.ensureProduct(ctx, change.ProductID); err != nil {
			return err
		}
		quantity := change.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 0 {
			return fmt.Errorf("quantity must be positive: %w", domain.ErrInvalidArgument)
		}
		return s.repo.Upsert(ctx, domain.CartItem{UserID: userID, ProductID: change.ProductID, Quantity: quantity})
	case domain.CartSetQuantity:
		if change.Quantity <= 0 {
			return fmt.Errorf("quantity must be positive: %w", domain.ErrInvalidArgument)
		}
		if err := s.ensureProduct(ctx, change.ProductID); err != nil {
			return err
		}
		return s.repo.SetQuantity(ctx, userID, change.ProductID, change.Quantity)
	case domain.CartRemove:
		if change.ProductID <= 0 {
			return fmt.Errorf("product id must be positive: %w", domain.ErrInvalidArgument)
		}
		// Removing an absent item is an idempotent no-op, not a conflict.
		if _, err := s.repo.Delete(ctx, userID, change.ProductID); err != nil {
			return err
		}
		return nil
	case domain.CartClear:
		return s.repo.Clear(ctx, userID)
	default:
		return fmt.Errorf("unknown cart change kind %q: %w", change.Kind, domain.ErrInvalidArgument)
	}
}

func (s *CartService) invalidateCart(ctx context.Context, userID uuid.UUID) {
	invalidate(ctx, s.logger, s.cache, "cart",
		cachekeys.CartKey(userID),
		cachekeys.CartCountKey(userID),
	)
}
