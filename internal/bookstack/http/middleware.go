package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// AuthnMiddleware validates the bearer token and stashes the resolved
// identity in the request context. Requests without a valid token get 401.
func AuthnMiddleware(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.WriteError(w, http.StatusUnauthorized,
					"unauthenticated", "Missing bearer token.")
				return
			}

			identity, err := auth.Validate(r.Context(), token)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized,
					"unauthenticated", "Invalid or expired token.")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity.User.ID, identity.User.Username, identity.SessionID)))
		})
	}
}

// OptionalAuthnMiddleware attaches an identity when a valid token is
// presented and lets the request through anonymously otherwise. Used on
// endpoints that personalise but don't require login.
func OptionalAuthnMiddleware(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if identity, err := auth.Validate(r.Context(), token); err == nil {
					r = r.WithContext(withIdentity(r.Context(), identity.User.ID, identity.User.Username, identity.SessionID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withIdentity(ctx context.Context, userID, username, sessionID string) context.Context {
	ctx = context.WithValue(ctx, httpx.CtxKeyUserID, userID)
	ctx = context.WithValue(ctx, httpx.CtxKeyUsername, username)
	ctx = context.WithValue(ctx, httpx.CtxKeySessionID, sessionID)
	return ctx
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// userID pulls the authenticated user id out of the request context. Empty
// means anonymous.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(httpx.CtxKeyUserID).(string)
	return id
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(httpx.CtxKeySessionID).(string)
	return id
}
