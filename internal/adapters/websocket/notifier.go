package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/adapters/metrics"
	"gitlab.com/arvora/api/storefront-service/internal/adapters/middleware"
	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/contextkeys"
)

// NotifierHandler upgrades /ws/updates requests and streams the caller's
// domain events over the connection. One subscription per connection; the
// hub drops events for consumers that stop draining.
type NotifierHandler struct {
	logger         domain.Logger
	configProvider config.Provider
	hub            *application.NotificationHub
}

// NewNotifierHandler creates a NotifierHandler.
func NewNotifierHandler(logger domain.Logger, cfgProvider config.Provider, hub *application.NotificationHub) *NotifierHandler {
	return &NotifierHandler{
		logger:         logger,
		configProvider: cfgProvider,
		hub:            hub,
	}
}

// ServeHTTP expects to run behind BearerAuthMiddleware.
func (h *NotifierHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.AuthenticatedUserFromContext(r.Context())
	if !ok {
		h.logger.Error(r.Context(), "Authenticated user missing after middleware chain for /ws/updates")
		domain.NewErrorResponse(domain.ErrCodeUnauthenticated, "Authentication required", "").WriteJSON(w, http.StatusUnauthorized)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{"json.v1"},
	})
	if err != nil {
		h.logger.Error(r.Context(), "WebSocket upgrade failed", "error", err.Error(), "user_id", user.UserID.String())
		return
	}

	metrics.IncrementActiveNotifierConnections()
	defer metrics.DecrementActiveNotifierConnections()

	// The connection outlives the HTTP request; carry only the request ID and
	// user identity over to the connection-lifetime context.
	connCtx := context.Background()
	if reqID, ok := r.Context().Value(contextkeys.RequestIDKey).(string); ok && reqID != "" {
		connCtx = context.WithValue(connCtx, contextkeys.RequestIDKey, reqID)
	}
	connCtx = context.WithValue(connCtx, contextkeys.UserIDKey, user.UserID.String())
	connCtx, cancel := context.WithCancel(connCtx)
	defer cancel()

	events, unsubscribe := h.hub.Subscribe(user.UserID)
	defer unsubscribe()

	h.logger.Info(connCtx, "Notifier connection established", "remote_addr", r.RemoteAddr, "subprotocol", c.Subprotocol())

	// No inbound protocol on this endpoint. CloseRead surfaces client
	// disconnects through context cancellation.
	readCtx := c.CloseRead(connCtx)

	defer c.Close(websocket.StatusNormalClosure, "notifier connection ended")

	pingInterval := time.Duration(h.configProvider.Get().App.PingIntervalSeconds) * time.Second
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	writeTimeout := time.Duration(h.configProvider.Get().App.WriteTimeoutSeconds) * time.Second
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	pinger := time.NewTicker(pingInterval)
	defer pinger.Stop()

	for {
		select {
		case <-readCtx.Done():
			h.logger.Info(connCtx, "Notifier connection closed by client")
			return
		case <-pinger.C:
			pingCtx, pingCancel := context.WithTimeout(readCtx, writeTimeout)
			err := c.Ping(pingCtx)
			pingCancel()
			if err != nil {
				h.logger.Warn(connCtx, "Notifier ping failed, closing", "error", err.Error())
				return
			}
		case event, open := <-events:
			if !open {
				return
			}
			writeCtx, writeCancel := context.WithTimeout(readCtx, writeTimeout)
			err := wsjson.Write(writeCtx, c, event)
			writeCancel()
			if err != nil {
				h.logger.Warn(connCtx, "Notifier write failed, closing", "error", err.Error())
				return
			}
		}
	}
}
