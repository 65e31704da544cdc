package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Favorite marks one product as favorited by a user.
type Favorite struct {
	UserID    uuid.UUID `json:"user_id"`
	ProductID int64     `json:"product_id"`
	AddedAt   time.Time `json:"added_at"`
}

// FavoriteChangeKind enumerates the mutations favorites support.
type FavoriteChangeKind string

const (
	FavoriteAdd    FavoriteChangeKind = "add"
	FavoriteRemove FavoriteChangeKind = "remove"
)

// FavoriteChange describes a single favorites mutation.
type FavoriteChange struct {
	Kind      FavoriteChangeKind `json:"kind"`
	ProductID int64              `json:"product_id"`
}

// FavoritesRepository is the persistence boundary for favorites.
type FavoritesRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Favorite, error)
	// Add inserts a favorite; adding an existing favorite is a no-op.
	Add(ctx context.Context, fav Favorite) error
	// Remove deletes a favorite and reports whether a row existed.
	Remove(ctx context.Context, userID uuid.UUID, productID int64) (bool, error)
	// ExistingProducts reports which of the given product IDs the user has favorited.
	ExistingProducts(ctx context.Context, userID uuid.UUID, productIDs []int64) (map[int64]bool, error)
}
