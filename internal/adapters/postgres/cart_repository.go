package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// CartRepository implements domain.CartRepository against the cart_items table,
// keyed by (user_id, product_id).
type CartRepository struct {
	db *pgxpool.Pool
}

// NewCartRepository creates a CartRepository.
func NewCartRepository(db *pgxpool.Pool) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	query := `
		SELECT user_id, product_id, quantity, added_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY added_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *CartRepository) Upsert(ctx context.Context, item domain.CartItem) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity
	`
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	if _, err := r.db.Exec(ctx, query, item.UserID, item.ProductID, item.Quantity, item.AddedAt); err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (r *CartRepository) SetQuantity(ctx context.Context, userID uuid.UUID, productID int64, quantity int) error {
	query := `UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND product_id = $2`
	tag, err := r.db.Exec(ctx, query, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to set cart quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID uuid.UUID, productID int64) (bool, error) {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`
	tag, err := r.db.Exec(ctx, query, userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to delete cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *CartRepository) ExistingProducts(ctx context.Context, userID uuid.UUID, productIDs []int64) (map[int64]bool, error) {
	query := `SELECT product_id FROM cart_items WHERE user_id = $1 AND product_id = ANY($2)`
	rows, err := r.db.Query(ctx, query, userID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing cart products: %w", err)
	}
	defer rows.Close()

	present := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		present[id] = false
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cart product id: %w", err)
		}
		present[id] = true
	}
	return present, rows.Err()
}

var _ domain.CartRepository = (*CartRepository)(nil)
