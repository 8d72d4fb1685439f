package domain

import "time"

// Session is the durable record behind a login. Its id doubles as the "jti"
// claim in both the access and refresh token minted for it; a session is
// valid only while expires_at is in the future AND its id has not been
// written to the revocation registry.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity is the result of validating a presented access token.
type Identity struct {
	User      User
	SessionID string
}
