package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "bus-tracker context key " + string(c)
}

// UserIDKey is the key for the acting user's ID in context.Context
const UserIDKey = contextKey("userID")

// RoleKey is the key for the acting user's role in context.Context
const RoleKey = contextKey("role")

// SessionTokenKey is the key for the opaque session token in context.Context
const SessionTokenKey = contextKey("sessionToken")

// RequestIDKey is the key for the request ID in context.Context
const RequestIDKey = contextKey("requestID")

// ComponentKey is the key for the logging component in context.Context
const ComponentKey = contextKey("component")

// OperationKey is the key for the logging operation in context.Context
const OperationKey = contextKey("operation")
