package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// BookmarksHandler serves the bookmark endpoints under /v1/bookmarks.
type BookmarksHandler struct {
	BookmarkService *service.BookmarkService
}

// HandleAdd serves POST /v1/bookmarks/{isbn}.
func (h *BookmarksHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	bookmark, err := h.BookmarkService.Add(r.Context(), userID(r), r.PathValue("isbn"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, bookmark)
}

// HandleRemove serves DELETE /v1/bookmarks/{isbn}.
func (h *BookmarksHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.BookmarkService.Remove(r.Context(), userID(r), r.PathValue("isbn")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList serves GET /v1/bookmarks.
func (h *BookmarksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	bookmarks, total, err := h.BookmarkService.List(r.Context(), userID(r), page, perPage)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"bookmarks": bookmarks,
		"total":     total,
	})
}
