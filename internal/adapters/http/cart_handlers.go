package http

import (
	"net/http"
	"strconv"
	"strings"

	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// CartHandlers exposes the cart over the uniform resource contract:
// read, change, batch change, and status.
type CartHandlers struct {
	service *application.CartService
	logger  domain.Logger
}

// NewCartHandlers creates CartHandlers.
func NewCartHandlers(service *application.CartService, logger domain.Logger) *CartHandlers {
	return &CartHandlers{service: service, logger: logger}
}

// Read handles GET /cart.
func (h *CartHandlers) Read(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	items, err := h.service.Read(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Change handles POST /cart/changes with a single CartChange body.
func (h *CartHandlers) Change(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	var change domain.CartChange
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

// BatchChange handles POST /cart/changes/batch with a list of CartChange.
func (h *CartHandlers) BatchChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	var body struct {
		Changes []domain.CartChange `json:"changes"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	if err := h.service.BatchMutate(r.Context(), userID, body.Changes); err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationAccepted)
}

// Status handles GET /cart/status?product_ids=1,2,3.
func (h *CartHandlers) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	productIDs, err := parseProductIDs(r.URL.Query().Get("product_ids"))
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	status, err := h.service.Status(r.Context(), userID, productIDs)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": statusByProduct(status)})
}

// parseProductIDs splits a comma-separated id list. An empty parameter is a
// valid empty query.
func parseProductIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, domain.ErrInvalidArgument
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// statusByProduct keys the JSON object by the decimal product ID.
func statusByProduct(status map[int64]bool) map[string]bool {
	out := make(map[string]bool, len(status))
	for id, present := range status {
		out[strconv.FormatInt(id, 10)] = present
	}
	return out
}
