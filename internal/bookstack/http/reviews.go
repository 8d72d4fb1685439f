package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// ReviewsHandler serves the review endpoints.
type ReviewsHandler struct {
	ReviewService *service.ReviewService
}

type reviewRequest struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

// HandleCreate serves POST /v1/books/{isbn}/reviews.
func (h *ReviewsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return
	}

	review, err := h.ReviewService.Create(r.Context(), userID(r), r.PathValue("isbn"), req.Content, req.Rating)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, review)
}

// HandleUpdate serves PUT /v1/reviews/{id}.
func (h *ReviewsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return
	}

	review, err := h.ReviewService.Update(r.Context(), userID(r), r.PathValue("id"), req.Content, req.Rating)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, review)
}

// HandleDelete serves DELETE /v1/reviews/{id}.
func (h *ReviewsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ReviewService.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList serves GET /v1/books/{isbn}/reviews. Only approved reviews
// show up here.
func (h *ReviewsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	reviews, total, err := h.ReviewService.ListForBook(r.Context(), r.PathValue("isbn"), page, perPage)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"reviews": reviews,
		"total":   total,
	})
}
