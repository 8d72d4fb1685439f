package domain

import "time"

// TokenPair is what login and refresh return: a short-lived access token and
// a long-lived refresh token, both JWTs carrying the session id as "jti".
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"` // always "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"` // access token lifetime
	Username     string        `json:"username,omitempty"`
}
