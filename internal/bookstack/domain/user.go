package domain

import "time"

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // argon2 encoded, never serialized
	IsActive     bool       `json:"is_active"` // false until email verification completes
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// VerificationToken is a single-use email verification token. The raw token
// value is mailed to the user and looked up verbatim (it is already an opaque
// random value, so no fingerprinting is needed).
type VerificationToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
