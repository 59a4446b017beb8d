package constants

// ContextKey is the type used for all context values set by this service.
// A dedicated type avoids collisions with keys set by third-party middleware.
type ContextKey string

// Context Keys
const (
	CtxKeyRequestID ContextKey = "request_id"
	CtxKeyUserID    ContextKey = "user_id"
	CtxKeyClientIP  ContextKey = "client_ip"
	CtxKeyUserAgent ContextKey = "user_agent"
	CtxKeyStartTime ContextKey = "start_time"
	CtxKeyModule    ContextKey = "module"
	CtxKeyFunction  ContextKey = "function"
)

// Gin context keys (plain strings, set by middleware for handlers)
const (
	GinKeyUserID   = "user_id"
	GinKeyUserRole = "user_role"
	GinKeyEmail    = "email"
)
