package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// PublisherAdapter publishes domain events to NATS for downstream consumers
// (email delivery, analytics). Publishing is best-effort: mutations never fail
// because the broker is unavailable.
type PublisherAdapter struct {
	nc            *nats.Conn
	logger        domain.Logger
	subjectPrefix string
}

// NewPublisherAdapter connects to NATS and returns the adapter with a cleanup
// that drains the connection.
func NewPublisherAdapter(ctx context.Context, cfgProvider config.Provider, appLogger domain.Logger) (*PublisherAdapter, func(), error) {
	appFullCfg := cfgProvider.Get()
	natsCfg := appFullCfg.NATS
	appName := appFullCfg.App.ServiceName

	appLogger.Info(ctx, "Attempting to connect to NATS server", "url", natsCfg.URL)

	nc, err := nats.Connect(natsCfg.URL,
		nats.Name(fmt.Sprintf("%s-publisher", appName)),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.ClosedHandler(func(c *nats.Conn) {
			appLogger.Info(ctx, "NATS connection closed")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			appLogger.Info(ctx, "NATS reconnected", "url", c.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(c *nats.Conn, err error) {
			appLogger.Warn(ctx, "NATS disconnected", "error", err)
		}),
	)
	if err != nil {
		appLogger.Error(ctx, "Failed to connect to NATS", "url", natsCfg.URL, "error", err.Error())
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", natsCfg.URL, err)
	}
	appLogger.Info(ctx, "Successfully connected to NATS server", "url", nc.ConnectedUrl())

	prefix := natsCfg.SubjectPrefix
	if prefix == "" {
		prefix = "storefront.events"
	}

	adapter := &PublisherAdapter{
		nc:            nc,
		logger:        appLogger,
		subjectPrefix: prefix,
	}
	cleanup := func() {
		if err := nc.Drain(); err != nil {
			appLogger.Warn(context.Background(), "Error draining NATS connection", "error", err.Error())
		}
	}
	return adapter, cleanup, nil
}

// Publish sends an event to "{prefix}.{event type}" as JSON.
func (a *PublisherAdapter) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}
	subject := fmt.Sprintf("%s.%s", a.subjectPrefix, event.Type)
	if err := a.nc.Publish(subject, payload); err != nil {
		a.logger.Warn(ctx, "Failed to publish event to NATS", "subject", subject, "error", err.Error())
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	a.logger.Debug(ctx, "Event published", "subject", subject, "user_id", event.UserID)
	return nil
}

// Connected reports whether the underlying NATS connection is usable. Used by
// the readiness probe.
func (a *PublisherAdapter) Connected() bool {
	return a.nc != nil && a.nc.Status() == nats.CONNECTED
}

var _ domain.EventPublisher = (*PublisherAdapter)(nil)
