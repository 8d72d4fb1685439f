package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// RatingsHandler serves the rating endpoints under /v1/ratings.
type RatingsHandler struct {
	RatingService *service.RatingService
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// HandleUpsert serves PUT /v1/ratings/{isbn}.
func (h *RatingsHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return
	}

	rating, err := h.RatingService.Rate(r.Context(), userID(r), r.PathValue("isbn"), req.Rating)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, rating)
}

// HandleGet serves GET /v1/ratings/{isbn}.
func (h *RatingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rating, err := h.RatingService.Get(r.Context(), userID(r), r.PathValue("isbn"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rating)
}

// HandleDelete serves DELETE /v1/ratings/{isbn}.
func (h *RatingsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.RatingService.Delete(r.Context(), userID(r), r.PathValue("isbn")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList serves GET /v1/ratings.
func (h *RatingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	ratings, total, err := h.RatingService.List(r.Context(), userID(r), page, perPage)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"ratings": ratings,
		"total":   total,
	})
}
