package domain

import (
	"context"
	"time"
)

// Promocode is a global, admin-owned discount code keyed by a unique
// human-readable code.
type Promocode struct {
	Code      string    `json:"code"`
	Percent   int       `json:"percent"`
	Enabled   bool      `json:"enabled"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the code can currently be applied.
func (p Promocode) Valid(now time.Time) bool {
	return p.Enabled && now.Before(p.ExpiresAt)
}

// PromocodeChangeKind enumerates the admin mutations promocodes support.
type PromocodeChangeKind string

const (
	PromocodeCreate  PromocodeChangeKind = "create"
	PromocodeDisable PromocodeChangeKind = "disable"
)

// PromocodeChange describes a single promocode mutation. Percent and ExpiresAt
// are only read for create.
type PromocodeChange struct {
	Kind      PromocodeChangeKind `json:"kind"`
	Code      string              `json:"code"`
	Percent   int                 `json:"percent,omitempty"`
	ExpiresAt time.Time           `json:"expires_at,omitempty"`
}

// PromocodeRepository is the persistence boundary for promocodes.
type PromocodeRepository interface {
	ListActive(ctx context.Context) ([]Promocode, error)
	GetByCode(ctx context.Context, code string) (*Promocode, error)
	// Create inserts a promocode; an existing code returns ErrInvalidArgument.
	Create(ctx context.Context, promo Promocode) error
	// Disable marks a code as disabled and reports whether a row existed.
	Disable(ctx context.Context, code string) (bool, error)
	// GetByCodes returns the promocodes for the given codes; absent codes are
	// simply missing from the result.
	GetByCodes(ctx context.Context, codes []string) (map[string]Promocode, error)
}
