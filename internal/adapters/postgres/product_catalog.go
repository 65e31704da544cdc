package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// ProductCatalog implements domain.ProductCatalog with a single existence
// query. The catalog itself (categories, pricing, search) is owned by another
// service; this adapter only validates product references.
type ProductCatalog struct {
	db *pgxpool.Pool
}

// NewProductCatalog creates a ProductCatalog.
func NewProductCatalog(db *pgxpool.Pool) *ProductCatalog {
	return &ProductCatalog{db: db}
}

func (c *ProductCatalog) Exists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := c.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}

var _ domain.ProductCatalog = (*ProductCatalog)(nil)
