package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// Broadcaster fans one event out to every configured publisher (the NATS
// adapter and the in-process notification hub). Individual publisher failures
// are logged by the publishers themselves and never propagate to the mutation
// that emitted the event.
type Broadcaster struct {
	logger     domain.Logger
	publishers []domain.EventPublisher
}

// NewBroadcaster creates a Broadcaster over the given publishers. Nil
// publishers are skipped so optional adapters can be wired conditionally.
func NewBroadcaster(logger domain.Logger, publishers ...domain.EventPublisher) *Broadcaster {
	kept := make([]domain.EventPublisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &Broadcaster{logger: logger, publishers: kept}
}

// Publish delivers the event to every publisher. Always returns nil; emit
// failures must not fail mutations.
func (b *Broadcaster) Publish(ctx context.Context, event domain.Event) error {
	for _, p := range b.publishers {
		if err := p.Publish(ctx, event); err != nil {
			b.logger.Warn(ctx, "Event publisher failed", "event_type", event.Type, "error", err.Error())
		}
	}
	return nil
}

var _ domain.EventPublisher = (*Broadcaster)(nil)

// emitEvent builds and publishes a mutation event. events may be nil when a
// service is constructed without an event sink (tests).
func emitEvent(ctx context.Context, events domain.EventPublisher, eventType domain.EventType, userID uuid.UUID, resource string) {
	if events == nil {
		return
	}
	_ = events.Publish(ctx, domain.Event{
		Type:       eventType,
		UserID:     userID,
		Resource:   resource,
		OccurredAt: time.Now(),
	})
}
