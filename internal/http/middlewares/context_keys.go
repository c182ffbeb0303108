package middlewares

// gin context keys used across middleware and handlers.
const (
	CtxRequestID  = "request_id"
	CtxAccountID  = "auth.accountID"
	CtxEmail      = "auth.email"
	CtxSessionJTI = "auth.sessionJTI"
)
