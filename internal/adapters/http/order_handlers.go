package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// OrderHandlers exposes order history and placement.
type OrderHandlers struct {
	service *application.OrderService
	logger  domain.Logger
}

// NewOrderHandlers creates OrderHandlers.
func NewOrderHandlers(service *application.OrderService, logger domain.Logger) *OrderHandlers {
	return &OrderHandlers{service: service, logger: logger}
}

// Read handles GET /orders.
func (h *OrderHandlers) Read(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	orders, err := h.service.Read(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// Place handles POST /orders and turns the current cart into an order.
func (h *OrderHandlers) Place(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	order, err := h.service.PlaceOrder(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// Change handles POST /orders/changes with a single OrderChange body.
func (h *OrderHandlers) Change(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	var change domain.OrderChange
	if err := decodeBody(r, &change); err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	if err := h.service.Mutate(r.Context(), userID, change); err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationAccepted)
}

// Status handles GET /orders/status?order_ids=... and reports which order IDs
// belong to the caller.
func (h *OrderHandlers) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	orderIDs, err := parseOrderIDs(r.URL.Query().Get("order_ids"))
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	status, err := h.service.Status(r.Context(), userID, orderIDs)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	out := make(map[string]bool, len(status))
	for id, owned := range status {
		out[id.String()] = owned
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": out})
}

func parseOrderIDs(raw string) ([]uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, domain.ErrInvalidArgument
		}
		ids = append(ids, id)
	}
	return ids, nil
}
