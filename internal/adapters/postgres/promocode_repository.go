package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// PromocodeRepository implements domain.PromocodeRepository against the
// promocodes table, keyed by a unique human-readable code.
type PromocodeRepository struct {
	db *pgxpool.Pool
}

// NewPromocodeRepository creates a PromocodeRepository.
func NewPromocodeRepository(db *pgxpool.Pool) *PromocodeRepository {
	return &PromocodeRepository{db: db}
}

func (r *PromocodeRepository) ListActive(ctx context.Context) ([]domain.Promocode, error) {
	query := `
		SELECT code, percent, enabled, expires_at, created_at
		FROM promocodes
		WHERE enabled = TRUE AND expires_at > NOW()
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active promocodes: %w", err)
	}
	defer rows.Close()

	promos := make([]domain.Promocode, 0)
	for rows.Next() {
		var p domain.Promocode
		if err := rows.Scan(&p.Code, &p.Percent, &p.Enabled, &p.ExpiresAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan promocode: %w", err)
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

func (r *PromocodeRepository) GetByCode(ctx context.Context, code string) (*domain.Promocode, error) {
	query := `SELECT code, percent, enabled, expires_at, created_at FROM promocodes WHERE code = $1`
	var p domain.Promocode
	err := r.db.QueryRow(ctx, query, code).Scan(&p.Code, &p.Percent, &p.Enabled, &p.ExpiresAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promocode: %w", err)
	}
	return &p, nil
}

func (r *PromocodeRepository) Create(ctx context.Context, promo domain.Promocode) error {
	query := `
		INSERT INTO promocodes (code, percent, enabled, expires_at, created_at)
		VALUES ($1, $2, TRUE, $3, $4)
		ON CONFLICT (code) DO NOTHING
	`
	if promo.CreatedAt.IsZero() {
		promo.CreatedAt = time.Now()
	}
	tag, err := r.db.Exec(ctx, query, promo.Code, promo.Percent, promo.ExpiresAt, promo.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create promocode: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("promocode %q: %w", promo.Code, domain.ErrInvalidArgument)
	}
	return nil
}

func (r *PromocodeRepository) Disable(ctx context.Context, code string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE promocodes SET enabled = FALSE WHERE code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("failed to disable promocode: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PromocodeRepository) GetByCodes(ctx context.Context, codes []string) (map[string]domain.Promocode, error) {
	query := `SELECT code, percent, enabled, expires_at, created_at FROM promocodes WHERE code = ANY($1)`
	rows, err := r.db.Query(ctx, query, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to query promocodes by codes: %w", err)
	}
	defer rows.Close()

	found := make(map[string]domain.Promocode, len(codes))
	for rows.Next() {
		var p domain.Promocode
		if err := rows.Scan(&p.Code, &p.Percent, &p.Enabled, &p.ExpiresAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan promocode: %w", err)
		}
		found[p.Code] = p
	}
	return found, rows.Err()
}

var _ domain.PromocodeRepository = (*PromocodeRepository)(nil)
