package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/middleware"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// writeJSON sends a success payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload) // Best effort, nothing useful to do on encode failure.
	}
}

// writeError maps a service error to the standard error body exactly once at
// the transport boundary.
func writeError(ctx context.Context, logger domain.Logger, w http.ResponseWriter, err error) {
	code, status := domain.CodeForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "Request failed", "code", string(code), "error", err.Error())
	} else {
		logger.Warn(ctx, "Request rejected", "code", string(code), "error", err.Error())
	}
	message := err.Error()
	if code == domain.ErrCodeInternal {
		// Internal details stay in the logs.
		message = "internal server error"
	}
	domain.NewErrorResponse(code, message, "").WriteJSON(w, status)
}

// authenticatedUserID returns the user ID injected by the auth middleware.
func authenticatedUserID(r *http.Request) (uuid.UUID, bool) {
	user, ok := middleware.AuthenticatedUserFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	return user.UserID, true
}

// decodeBody decodes a JSON request body into dst, mapping decode failures to
// the invalid-argument class.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}

// okBody is the uniform acknowledgement for mutations that return no entity.
type okBody struct {
	Status string `json:"status"`
}

var mutationAccepted = okBody{Status: "ok"}
