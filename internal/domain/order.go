package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderStatus tracks an order through its lifecycle.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a placed order with its line items.
type Order struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderItem is one product line of an order, copied from the cart at placement.
type OrderItem struct {
	OrderID   uuid.UUID `json:"order_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// OrderChangeKind enumerates the mutations orders support.
type OrderChangeKind string

const (
	OrderPlace  OrderChangeKind = "place"
	OrderCancel OrderChangeKind = "cancel"
)

// OrderChange describes a single order mutation. OrderID is only read for cancel.
type OrderChange struct {
	Kind    OrderChangeKind `json:"kind"`
	OrderID uuid.UUID       `json:"order_id,omitempty"`
}

// OrderRepository is the persistence boundary for orders.
type OrderRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	// PlaceFromCart copies the user's cart rows into a new order and clears
	// the cart in one transaction. An empty cart returns ErrInvalidArgument.
	PlaceFromCart(ctx context.Context, userID uuid.UUID) (*Order, error)
	// Cancel marks an order cancelled. Orders of other users or unknown IDs
	// return ErrNotFound.
	Cancel(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) error
	// ExistingOrders reports which of the given order IDs belong to the user.
	ExistingOrders(ctx context.Context, userID uuid.UUID, orderIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// ProductCatalog is the read-only boundary to the catalog, consumed only to
// validate product references. The catalog tree itself is owned elsewhere.
type ProductCatalog interface {
	Exists(ctx context.Context, productID int64) (bool, error)
}
