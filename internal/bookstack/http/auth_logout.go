package http

import (
	"net/http"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
)

// LogoutHandler serves POST /v1/auth/logout. It kills the session behind
// the presented access token; repeating the call is harmless.
type LogoutHandler struct {
	AuthService *service.AuthService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context(), sessionID(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
