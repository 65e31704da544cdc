package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// FavoritesRepository implements domain.FavoritesRepository against the
// favorites table, keyed by (user_id, product_id).
type FavoritesRepository struct {
	db *pgxpool.Pool
}

// NewFavoritesRepository creates a FavoritesRepository.
func NewFavoritesRepository(db *pgxpool.Pool) *FavoritesRepository {
	return &FavoritesRepository{db: db}
}

func (r *FavoritesRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	query := `
		SELECT user_id, product_id, added_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY added_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]domain.Favorite, 0)
	for rows.Next() {
		var fav domain.Favorite
		if err := rows.Scan(&fav.UserID, &fav.ProductID, &fav.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, fav)
	}
	return favorites, rows.Err()
}

func (r *FavoritesRepository) Add(ctx context.Context, fav domain.Favorite) error {
	query := `
		INSERT INTO favorites (user_id, product_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`
	if fav.AddedAt.IsZero() {
		fav.AddedAt = time.Now()
	}
	if _, err := r.db.Exec(ctx, query, fav.UserID, fav.ProductID, fav.AddedAt); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (r *FavoritesRepository) Remove(ctx context.Context, userID uuid.UUID, productID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *FavoritesRepository) ExistingProducts(ctx context.Context, userID uuid.UUID, productIDs []int64) (map[int64]bool, error) {
	query := `SELECT product_id FROM favorites WHERE user_id = $1 AND product_id = ANY($2)`
	rows, err := r.db.Query(ctx, query, userID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing favorites: %w", err)
	}
	defer rows.Close()

	present := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		present[id] = false
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite product id: %w", err)
		}
		present[id] = true
	}
	return present, rows.Err()
}

var _ domain.FavoritesRepository = (*FavoritesRepository)(nil)
