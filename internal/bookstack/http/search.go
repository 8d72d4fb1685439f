package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// SearchHandler serves GET /v1/search. Anonymous callers get the plain
// ranking; authenticated callers get author boosting from their history.
type SearchHandler struct {
	SearchService *service.SearchService
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := domain.SearchFilters{
		Query:  q.Get("q"),
		Author: q.Get("author"),
	}
	if genres := q.Get("genres"); genres != "" {
		filters.Genres = strings.Split(genres, ",")
	}
	if raw := q.Get("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "min_rating must be a number.")
			return
		}
		filters.MinRating = &v
	}
	if raw := q.Get("max_pages"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "max_pages must be an integer.")
			return
		}
		filters.MaxPages = &v
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	page, err := h.SearchService.Search(r.Context(), userID(r), filters)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, page)
}
