package http

import (
	"net/http"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// VerifyEmailHandler serves GET /v1/auth/verify-email/{token}. The link is
// clicked straight from the verification mail.
type VerifyEmailHandler struct {
	UserService *service.UserService
}

func (h *VerifyEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token is required.")
		return
	}

	if err := h.UserService.VerifyEmail(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified. You can now log in.",
	})
}
