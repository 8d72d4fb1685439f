// Package tokenx implements the signed-token codec used for access and
// refresh tokens. Tokens are HS256 JWTs whose "jti" claim carries the id of
// the session they were minted for, which is what lets a single revocation
// entry kill both tokens of a session at once.
package tokenx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/bookstack/pkg/idx"
)

// Token use values carried in the "use" claim.
const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

var (
	// ErrInvalidToken reports a token that failed signature or structural
	// validation. Expired tokens get their own error so callers can decide
	// whether a refresh is worth attempting.
	ErrInvalidToken = errors.New("tokenx: invalid token")
	ErrExpiredToken = errors.New("tokenx: token expired")
)

// Claims is the decoded, validated content of a token.
type Claims struct {
	Subject   string // user id
	SessionID string // session id, from "jti"
	Use       string // "access" or "refresh"
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	Use string `json:"use,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a single shared HMAC secret.
// All fields must be set before use.
type Codec struct {
	Secret []byte
	Issuer string
}

// Encode mints a signed token for the given subject and session. If
// sessionID is empty a fresh ULID is generated so the token still carries a
// unique, revocable id.
func (c *Codec) Encode(subject, sessionID, use string, ttl time.Duration) (string, error) {
	if len(c.Secret) == 0 {
		return "", fmt.Errorf("tokenx: codec has no secret")
	}
	if sessionID == "" {
		sessionID = idx.New().String()
	}

	now := time.Now().UTC()
	claims := jwtClaims{
		Use: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.Issuer,
			Subject:   subject,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.Secret)
	if err != nil {
		return "", fmt.Errorf("tokenx: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature, issuer and expiry of a token and returns
// its claims. Expired tokens return ErrExpiredToken; every other failure
// collapses to ErrInvalidToken.
func (c *Codec) Decode(token string) (Claims, error) {
	var parsed jwtClaims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}

	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return c.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		Subject:   parsed.Subject,
		SessionID: parsed.ID,
		Use:       parsed.Use,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	return claims, nil
}
