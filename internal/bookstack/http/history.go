package http

import (
	"net/http"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// HistoryHandler serves the search history endpoints under
// /v1/search/history.
type HistoryHandler struct {
	HistoryService *service.HistoryService
}

// HandleGet serves GET /v1/search/history.
func (h *HistoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	entries, err := h.HistoryService.Get(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"history": entries})
}

// HandleDelete serves DELETE /v1/search/history. With a ?q= parameter it
// forgets one query; without it the whole history goes.
func (h *HistoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var err error
	if q := r.URL.Query().Get("q"); q != "" {
		err = h.HistoryService.Delete(r.Context(), userID(r), q)
	} else {
		err = h.HistoryService.Clear(r.Context(), userID(r))
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
