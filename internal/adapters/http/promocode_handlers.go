package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// PromocodeHandlers exposes the shared promocode list. Reads and status checks
// are open to any authenticated user; changes sit behind the admin group.
type PromocodeHandlers struct {
	service *application.PromocodeService
	logger  domain.Logger
}

// NewPromocodeHandlers creates PromocodeHandlers.
func NewPromocodeHandlers(service *application.PromocodeService, logger domain.Logger) *PromocodeHandlers {
	return &PromocodeHandlers{service: service, logger: logger}
}

// Read handles GET /promocodes.
func (h *PromocodeHandlers) Read(w http.ResponseWriter, r *http.Request) {
	promos, err := h.service.Read(r.Context())
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	if promos == nil {
		promos = []domain.Promocode{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"promocodes": promos})
}

// Change handles POST /admin/promocodes/changes with a single PromocodeChange.
func (h *PromocodeHandlers) Change(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	var change domain.PromocodeChange
	if err := decodeBody(r, &change); err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	if err := h.service.Mutate(r.Context(), actor, change); err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationAccepted)
}

// BatchChange handles POST /admin/promocodes/changes/batch.
func (h *PromocodeHandlers) BatchChange(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	var body struct {
		Changes []domain.PromocodeChange `json:"changes"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	if err := h.service.BatchMutate(r.Context(), actor, body.Changes); err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationAccepted)
}

// Status handles GET /promocodes/status?codes=SPRING,SUMMER and reports which
// of the presented codes are currently applicable.
func (h *PromocodeHandlers) Status(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("codes"))
	var codes []string
	if raw != "" {
		codes = strings.Split(raw, ",")
	}
	status, err := h.service.Status(r.Context(), codes)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}

func actorID(r *http.Request) uuid.UUID {
	if userID, ok := authenticatedUserID(r); ok {
		return userID
	}
	return uuid.Nil
}
