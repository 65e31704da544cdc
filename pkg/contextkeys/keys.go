package contextkeys

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey is the context key for storing and retrieving a request ID.
	RequestIDKey contextKey = "request_id"

	// UserIDKey is the context key for storing and retrieving the authenticated user ID.
	UserIDKey contextKey = "user_id"

	// IsAdminKey is the context key for storing and retrieving the admin flag from the token.
	IsAdminKey contextKey = "is_admin"

	// AuthUserKey is the context key for storing the entire AuthenticatedUser struct.
	AuthUserKey contextKey = "auth_user"
)

// String makes contextKey satisfy fmt.Stringer to help with debugging/logging of keys themselves.
func (c contextKey) String() string {
	return string(c)
}
