package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CartItem is one product reference in a user's cart.
type CartItem struct {
	UserID    uuid.UUID `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// CartChangeKind enumerates the mutations a cart supports.
type CartChangeKind string

const (
	CartAdd         CartChangeKind = "add"
	CartSetQuantity CartChangeKind = "set_quantity"
	CartRemove      CartChangeKind = "remove"
	CartClear       CartChangeKind = "clear"
)

// CartChange describes a single cart mutation. ProductID and Quantity are
// interpreted per Kind: add requires both (quantity defaults to 1),
// set_quantity requires both, remove requires ProductID, clear requires neither.
type CartChange struct {
	Kind      CartChangeKind `json:"kind"`
	ProductID int64          `json:"product_id,omitempty"`
	Quantity  int            `json:"quantity,omitempty"`
}

// CartRepository is the persistence boundary for cart items. No caching logic.
type CartRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]CartItem, error)
	// Upsert inserts an item or adds to the quantity of an existing one.
	Upsert(ctx context.Context, item CartItem) error
	// SetQuantity overwrites the quantity of an existing item. Absent items
	// return ErrNotFound.
	SetQuantity(ctx context.Context, userID uuid.UUID, productID int64, quantity int) error
	// Delete removes one item and reports whether a row existed.
	Delete(ctx context.Context, userID uuid.UUID, productID int64) (bool, error)
	// Clear removes every item of the user's cart.
	Clear(ctx context.Context, userID uuid.UUID) error
	// ExistingProducts reports which of the given product IDs are present in
	// the user's cart.
	ExistingProducts(ctx context.Context, userID uuid.UUID, productIDs []int64) (map[int64]bool, error)
}
