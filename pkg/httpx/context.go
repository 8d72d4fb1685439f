package httpx

type ctxKey string

// Context keys populated by the authentication middleware once an access
// token has been validated.
const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyUsername  ctxKey = "username"
	CtxKeySessionID ctxKey = "session_id"
)
