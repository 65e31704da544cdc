package domain

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorCode represents a specific error condition surfaced to clients.
type ErrorCode string

const (
	ErrCodeUnauthenticated ErrorCode = "Unauthenticated"      // HTTP 401, no session established
	ErrCodeSessionExpired  ErrorCode = "SessionExpired"       // HTTP 401 after a failed refresh
	ErrCodeInvalidArgument ErrorCode = "InvalidArgument"      // HTTP 400
	ErrCodeNotFound        ErrorCode = "NotFound"             // HTTP 404
	ErrCodeForbidden       ErrorCode = "Forbidden"            // HTTP 403, e.g. admin-only surface
	ErrCodeRateLimited     ErrorCode = "RateLimitExceeded"    // HTTP 429
	ErrCodeUnavailable     ErrorCode = "UpstreamUnavailable"  // HTTP 503, store/broker failure
	ErrCodeInternal        ErrorCode = "InternalServerError"  // HTTP 500
)

// Sentinel errors forming the closed error taxonomy. Services return these
// (possibly wrapped); the transport boundary decodes them exactly once.
var (
	ErrUnauthenticated = errors.New("no session established")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrUnavailable     = errors.New("upstream unavailable")

	// ErrCacheMiss signals an absent or expired cache entry. It is internal to
	// the cache layer and never crosses the transport boundary.
	ErrCacheMiss = errors.New("item not found in cache")
)

// CodeForError maps a service error to its ErrorCode and HTTP status.
func CodeForError(err error) (ErrorCode, int) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return ErrCodeUnauthenticated, http.StatusUnauthorized
	case errors.Is(err, ErrSessionExpired):
		return ErrCodeSessionExpired, http.StatusUnauthorized
	case errors.Is(err, ErrInvalidArgument):
		return ErrCodeInvalidArgument, http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound, http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return ErrCodeForbidden, http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return ErrCodeRateLimited, http.StatusTooManyRequests
	case errors.Is(err, ErrUnavailable):
		return ErrCodeUnavailable, http.StatusServiceUnavailable
	default:
		return ErrCodeInternal, http.StatusInternalServerError
	}
}

// ErrorResponse is the standard error format returned to clients as JSON.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// NewErrorResponse creates a new ErrorResponse struct.
func NewErrorResponse(code ErrorCode, message string, details string) ErrorResponse {
	return ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// WriteJSON sends an ErrorResponse as JSON with the given HTTP status code.
func (er ErrorResponse) WriteJSON(w http.ResponseWriter, httpStatusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	json.NewEncoder(w).Encode(er) // Best effort, error from Encode is not typically handled here.
}
