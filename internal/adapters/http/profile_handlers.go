package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// ProfileHandlers exposes the user's own profile over the uniform contract.
type ProfileHandlers struct {
	service *application.ProfileService
	logger  domain.Logger
}

// NewProfileHandlers creates ProfileHandlers.
func NewProfileHandlers(service *application.ProfileService, logger domain.Logger) *ProfileHandlers {
	return &ProfileHandlers{service: service, logger: logger}
}

// Read handles GET /profile.
func (h *ProfileHandlers) Read(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	profile, err := h.service.Read(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Change handles POST /profile/changes with a single ProfileChange body.
func (h *ProfileHandlers) Change(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	var change domain.ProfileChange
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

// BatchChange handles POST /profile/changes/batch.
func (h *ProfileHandlers) BatchChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	var body struct {
		Changes []domain.ProfileChange `json:"changes"`
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

// Status handles GET /profile/status?user_ids=... and reports which of the
// given user IDs exist. Admin only; wired behind the admin router group.
func (h *ProfileHandlers) Status(w http.ResponseWriter, r *http.Request) {
	userIDs, err := parseUserIDs(r.URL.Query().Get("user_ids"))
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	status, err := h.service.Status(r.Context(), userIDs)
	if err != nil {
		writeError(r.Context(), h.logger, w, err)
		return
	}
	out := make(map[string]bool, len(status))
	for id, exists := range status {
		out[id.String()] = exists
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": out})
}

func parseUserIDs(raw string) ([]uuid.UUID, error) {
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
