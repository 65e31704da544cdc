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

// OrderService serves the user's order history through the cache and applies
// order mutations. Placing an order consumes the cart in one transaction, so
// a successful place invalidates both the orders and the cart entries.
type OrderService struct {
	logger domain.Logger
	config config.Provider
	repo   domain.OrderRepository
	users  domain.ProfileRepository
	cache  domain.CacheStore
	events domain.EventPublisher
}

// NewOrderService creates an OrderService.
func NewOrderService(
	logger domain.Logger,
	cfg config.Provider,
	repo domain.OrderRepository,
	users domain.ProfileRepository,
	cache domain.CacheStore,
	events domain.EventPublisher,
) *OrderService {
	return &OrderService{
		logger: logger,
		config: cfg,
		repo:   repo,
		users:  users,
		cache:  cache,
		events: events,
	}
}

func (s *OrderService) ttl() time.Duration {
	seconds := s.config.Get().Cache.OrdersTTLSeconds
	if seconds <= 0 {
		seconds = 600
	}
	return time.Duration(seconds) * time.Second
}

// Read returns the user's orders through the cache.
func (s *OrderService) Read(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	return readThrough(ctx, s.cache, cachekeys.OrdersKey(userID), s.ttl(), func(ctx context.Context) ([]domain.Order, error) {
		return s.repo.ListByUser(ctx, userID)
	})
}

// Mutate applies one order change. Place returns the created order through
// the out parameter of PlaceOrder; this uniform entry point discards it.
func (s *OrderService) Mutate(ctx context.Context, userID uuid.UUID, change domain.OrderChange) error {
	switch change.Kind {
	case domain.OrderPlace:
		_, err := s.PlaceOrder(ctx, userID)
		return err
	case domain.OrderCancel:
		return s.CancelOrder(ctx, userID, change.OrderID)
	default:
		return fmt.Errorf("unknown order change kind %q: %w", change.Kind, domain.ErrInvalidArgument)
	}
}

// BatchMutate applies all changes and invalidates once at the end.
func (s *OrderService) BatchMutate(ctx context.Context, userID uuid.UUID, changes []domain.OrderChange) error {
	if len(changes) == 0 {
		return fmt.Errorf("no changes given: %w", domain.ErrInvalidArgument)
	}
	for _, change := range changes {
		if err := s.Mutate(ctx, userID, change); err != nil {
			return err
		}
	}
	return nil
}

// Status reports which of the given order IDs belong to the user.
func (s *OrderService) Status(ctx context.Context, userID uuid.UUID, orderIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	if len(orderIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	return s.repo.ExistingOrders(ctx, userID, orderIDs)
}

// PlaceOrder turns the user's current cart into an order. The cart is cleared
// inside the same transaction, so both the orders and cart cache entries are
// invalidated after commit.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	order, err := s.repo.PlaceFromCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.logger, s.cache, "orders", cachekeys.OrdersKey(userID))
	invalidatePrefix(ctx, s.logger, s.cache, "cart", cachekeys.CartPrefix(userID))
	emitEvent(ctx, s.events, domain.EventOrderPlaced, userID, order.ID.String())
	return order, nil
}

// CancelOrder marks one of the user's placed orders cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) error {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return fmt.Errorf("user id and order id are required: %w", domain.ErrInvalidArgument)
	}
	if err := s.repo.Cancel(ctx, userID, orderID); err != nil {
		return err
	}
	invalidate(ctx, s.logger, s.cache, "orders", cachekeys.OrdersKey(userID))
	emitEvent(ctx, s.events, domain.EventOrderCancelled, userID, orderID.String())
	return nil
}

func (s *OrderService) ensureUser(ctx context.Context, userID uuid.UUID) error {
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
