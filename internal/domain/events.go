package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event emitted after a successful mutation.
type EventType string

const (
	EventCartChanged      EventType = "cart.changed"
	EventFavoritesChanged EventType = "favorites.changed"
	EventProfileUpdated   EventType = "profile.updated"
	EventPromocodeChanged EventType = "promocode.changed"
	EventOrderPlaced      EventType = "order.placed"
	EventOrderCancelled   EventType = "order.cancelled"
)

// Event is the compact JSON payload published to the broker and pushed to
// connected notifier clients. UserID is zero for global (promocode) events.
type Event struct {
	Type       EventType `json:"type"`
	UserID     uuid.UUID `json:"user_id,omitempty"`
	Resource   string    `json:"resource,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher publishes domain events. Publishing is fire-and-forget from
// the caller's perspective; a failed publish must never fail the mutation.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
