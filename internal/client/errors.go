package client

import (
	"fmt"
	"net/http"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// APIError is a decoded error response from the service. It wraps the matching
// domain sentinel so callers can use errors.Is against the shared taxonomy.
type APIError struct {
	Code       domain.ErrorCode
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s (http %d): %s", e.Code, e.StatusCode, e.Message)
}

// Unwrap maps the wire code back onto the domain sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case domain.ErrCodeUnauthenticated:
		return domain.ErrUnauthenticated
	case domain.ErrCodeSessionExpired:
		return domain.ErrSessionExpired
	case domain.ErrCodeInvalidArgument:
		return domain.ErrInvalidArgument
	case domain.ErrCodeNotFound:
		return domain.ErrNotFound
	case domain.ErrCodeForbidden:
		return domain.ErrForbidden
	case domain.ErrCodeRateLimited:
		return domain.ErrRateLimited
	case domain.ErrCodeUnavailable:
		return domain.ErrUnavailable
	default:
		return nil
	}
}

// apiError builds an APIError from a decoded body, falling back to a code
// derived from the HTTP status when the body was not parseable.
func apiError(status int, body *domain.ErrorResponse) *APIError {
	if body != nil && body.Code != "" {
		return &APIError{Code: body.Code, Message: body.Message, StatusCode: status}
	}
	code := domain.ErrCodeInternal
	switch status {
	case http.StatusUnauthorized:
		code = domain.ErrCodeUnauthenticated
	case http.StatusForbidden:
		code = domain.ErrCodeForbidden
	case http.StatusNotFound:
		code = domain.ErrCodeNotFound
	case http.StatusBadRequest:
		code = domain.ErrCodeInvalidArgument
	case http.StatusTooManyRequests:
		code = domain.ErrCodeRateLimited
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		code = domain.ErrCodeUnavailable
	}
	return &APIError{Code: code, Message: http.StatusText(status), StatusCode: status}
}
