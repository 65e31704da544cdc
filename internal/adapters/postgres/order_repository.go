package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// OrderRepository implements domain.OrderRepository against the orders and
// order_items tables.
type OrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository creates an OrderRepository.
func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	query := `
		SELECT o.id, o.user_id, o.status, o.created_at, i.product_id, i.quantity
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, i.product_id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			o         domain.Order
			productID *int64
			quantity  *int
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.CreatedAt, &productID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		i, seen := index[o.ID]
		if !seen {
			o.Items = make([]domain.OrderItem, 0, 4)
			orders = append(orders, o)
			i = len(orders) - 1
			index[o.ID] = i
		}
		if productID != nil && quantity != nil {
			orders[i].Items = append(orders[i].Items, domain.OrderItem{
				OrderID:   o.ID,
				ProductID: *productID,
				Quantity:  *quantity,
			})
		}
	}
	return orders, rows.Err()
}

// PlaceFromCart copies the cart into a new order and clears the cart in one
// transaction, so the durable write is committed before any cache invalidation
// the service performs afterwards.
func (r *OrderRepository) PlaceFromCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart for order: %w", err)
	}
	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cart row for order: %w", err)
		}
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cart rows for order: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("cart is empty: %w", domain.ErrInvalidArgument)
	}

	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    domain.OrderStatusPlaced,
		CreatedAt: time.Now(),
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, status, created_at) VALUES ($1, $2, $3, $4)`,
		order.ID, order.UserID, order.Status, order.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	for i := range items {
		items[i].OrderID = order.ID
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity) VALUES ($1, $2, $3)`,
			order.ID, items[i].ProductID, items[i].Quantity,
		); err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("failed to clear cart after order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}
	order.Items = items
	return order, nil
}

func (r *OrderRepository) Cancel(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) error {
	query := `UPDATE orders SET status = $3 WHERE id = $1 AND user_id = $2 AND status = $4`
	tag, err := r.db.Exec(ctx, query, orderID, userID, domain.OrderStatusCancelled, domain.OrderStatusPlaced)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) ExistingOrders(ctx context.Context, userID uuid.UUID, orderIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM orders WHERE user_id = $1 AND id = ANY($2)`, userID, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing orders: %w", err)
	}
	defer rows.Close()

	present := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		present[id] = false
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan order id: %w", err)
		}
		present[id] = true
	}
	return present, rows.Err()
}

var _ domain.OrderRepository = (*OrderRepository)(nil)
