package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// RecommendationsHandler serves GET /v1/recommendations.
type RecommendationsHandler struct {
	BookService *service.BookService
}

func (h *RecommendationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topN, _ := strconv.Atoi(r.URL.Query().Get("top_n"))

	books, err := h.BookService.Recommendations(r.Context(), userID(r), topN)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"recommendations": books})
}
