package http

import (
	"net/http"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// SessionsHandler serves the session management endpoints under /v1/sessions.
type SessionsHandler struct {
	AuthService *service.AuthService
}

// HandleList serves GET /v1/sessions.
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.AuthService.ListSessions(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"current":  sessionID(r),
	})
}

// HandleRevoke serves DELETE /v1/sessions/{id}.
func (h *SessionsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.RevokeSession(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRevokeOthers serves DELETE /v1/sessions. It logs out every device
// except the one making the call.
func (h *SessionsHandler) HandleRevokeOthers(w http.ResponseWriter, r *http.Request) {
	n, err := h.AuthService.RevokeOtherSessions(r.Context(), userID(r), sessionID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]int{"revoked": n})
}
