package application

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// NotificationHub is the in-process fan-out feeding the update-notifier
// WebSocket handler. Subscribers register per user; global events (zero user
// ID, e.g. promocode changes) go to every subscriber. Slow subscribers have
// events dropped rather than blocking the publishing mutation.
type NotificationHub struct {
	logger      domain.Logger
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[int]chan domain.Event
	nextID      int
}

// NewNotificationHub creates a NotificationHub.
func NewNotificationHub(logger domain.Logger) *NotificationHub {
	return &NotificationHub{
		logger:      logger,
		subscribers: make(map[uuid.UUID]map[int]chan domain.Event),
	}
}

const subscriberBufferSize = 16

// Subscribe registers a listener for the user's events plus global events.
// The returned cancel func must be called when the listener goes away; the
// channel is closed by cancel.
func (h *NotificationHub) Subscribe(userID uuid.UUID) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, subscriberBufferSize)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[int]chan domain.Event)
	}
	h.subscribers[userID][id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[userID]; ok {
			if _, ok := subs[id]; ok {
				delete(subs, id)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to the owning user's subscribers, or to all
// subscribers for global events.
func (h *NotificationHub) Publish(ctx context.Context, event domain.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(ch chan domain.Event) {
		select {
		case ch <- event:
		default:
			h.logger.Debug(ctx, "Dropping event for slow notifier subscriber", "event_type", event.Type)
		}
	}

	if event.UserID == uuid.Nil {
		for _, subs := range h.subscribers {
			for _, ch := range subs {
				deliver(ch)
			}
		}
		return nil
	}
	for _, ch := range h.subscribers[event.UserID] {
		deliver(ch)
	}
	return nil
}

var _ domain.EventPublisher = (*NotificationHub)(nil)
