package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// BooksHandler serves book detail and catalog writes.
type BooksHandler struct {
	BookService *service.BookService
}

type createBookRequest struct {
	ISBN        string  `json:"isbn"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Genre       *string `json:"genre,omitempty"`
	Description *string `json:"description,omitempty"`
	CoverURL    *string `json:"cover_url,omitempty"`
	PageCount   *int    `json:"page_count,omitempty"`
}

// HandleGet serves GET /v1/books/{isbn}.
func (h *BooksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	book, err := h.BookService.GetBook(r.Context(), r.PathValue("isbn"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, book)
}

// HandleCreate serves POST /v1/books.
func (h *BooksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return
	}

	book, err := h.BookService.CreateBook(r.Context(), domain.Book{
		ISBN:        req.ISBN,
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		PageCount:   req.PageCount,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, book)
}
