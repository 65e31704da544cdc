package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Profile is the account record of a storefront user. PasswordHash never
// leaves the persistence and auth layers.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	IsAdmin      bool      `json:"is_admin"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileChangeKind enumerates the mutations a profile supports.
type ProfileChangeKind string

const (
	ProfileSetName     ProfileChangeKind = "set_name"
	ProfileSetEmail    ProfileChangeKind = "set_email"
	ProfileSetPassword ProfileChangeKind = "set_password"
)

// ProfileChange describes a single profile mutation. Value carries the new
// name, email, or plaintext password depending on Kind; passwords are hashed
// by the service before they reach the repository.
type ProfileChange struct {
	Kind  ProfileChangeKind `json:"kind"`
	Value string            `json:"value"`
}

// ProfileRepository is the persistence boundary for user profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Create(ctx context.Context, profile *Profile) error
	UpdateName(ctx context.Context, userID uuid.UUID, name string) error
	UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
	// Exists reports whether a profile row exists for the user.
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
	// ExistingUsers reports which of the given user IDs have a profile.
	ExistingUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}
