package http

import (
	"net/http"

	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// FavoritesHandlers exposes favorites over the uniform resource contract.
type FavoritesHandlers struct {
	service *application.FavoritesService
	logger  domain.Logger
}

// NewFavoritesHandlers creates FavoritesHandlers.
func NewFavoritesHandlers(service *application.FavoritesService, logger domain.Logger) *FavoritesHandlers {
	return &FavoritesHandlers{service: service, logger: logger}
}

// Read handles GET /favorites.
func (h *FavoritesHandlers) Read(w http.ResponseWriter, r *http.Request) {
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
		items = []domain.Favorite{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Change handles POST /favorites/changes with a single FavoriteChange body.
func (h *FavoritesHandlers) Change(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	var change domain.FavoriteChange
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

// BatchChange handles POST /favorites/changes/batch.
func (h *FavoritesHandlers) BatchChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		writeError(r.Context(), h.logger, w, domain.ErrUnauthenticated)
		return
	}
	var body struct {
		Changes []domain.FavoriteChange `json:"changes"`
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

// Status handles GET /favorites/status?product_ids=1,2,3.
func (h *FavoritesHandlers) Status(w http.ResponseWriter, r *http.Request) {
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
