package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository against the users table.
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a ProfileRepository.
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, email, name, is_admin, password_hash, created_at, updated_at`

func (r *ProfileRepository) scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.IsAdmin, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, profileColumns)
	return r.scanProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, profileColumns)
	return r.scanProfile(r.db.QueryRow(ctx, query, email))
}

func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, name, is_admin, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.Exec(ctx, query,
		profile.ID, profile.Email, profile.Name, profile.IsAdmin, profile.PasswordHash, profile.CreatedAt, profile.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) updateColumn(ctx context.Context, userID uuid.UUID, column string, value any) error {
	query := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = $3 WHERE id = $1`, column)
	tag, err := r.db.Exec(ctx, query, userID, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) UpdateName(ctx context.Context, userID uuid.UUID, name string) error {
	return r.updateColumn(ctx, userID, "name", name)
}

func (r *ProfileRepository) UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error {
	return r.updateColumn(ctx, userID, "email", email)
}

func (r *ProfileRepository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	return r.updateColumn(ctx, userID, "password_hash", hash)
}

func (r *ProfileRepository) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}
	return exists, nil
}

func (r *ProfileRepository) ExistingUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users WHERE id = ANY($1)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing users: %w", err)
	}
	defer rows.Close()

	present := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		present[id] = false
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		present[id] = true
	}
	return present, rows.Err()
}

var _ domain.ProfileRepository = (*ProfileRepository)(nil)
