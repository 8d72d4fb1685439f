package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/catalog"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/slogx"
)

const recommendationsDefaultN = 10

// CatalogClient resolves books we do not hold locally.
type CatalogClient interface {
	Lookup(ctx context.Context, isbn string) (domain.Book, error)
}

// RecommenderClient returns ISBNs a user is likely to enjoy.
type RecommenderClient interface {
	Recommend(ctx context.Context, userID string, topN int) ([]string, error)
}

// BookService serves book detail and recommendations, falling back to the
// external catalog for books the local store has never seen.
type BookService struct {
	Store       store.Store
	Catalog     CatalogClient
	Recommender RecommenderClient
}

// GetBook prefers the local store and lazily imports catalog hits so the
// next lookup is local. The import is best-effort; the caller still gets
// the book when it fails.
func (s *BookService) GetBook(ctx context.Context, isbn string) (domain.Book, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return domain.Book{}, fmt.Errorf("%w: isbn required", ErrInvalidQuery)
	}

	book, err := s.Store.Books().GetBook(ctx, isbn)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Book{}, err
	}

	book, err = s.Catalog.Lookup(ctx, isbn)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			return domain.Book{}, ErrNotFound
		case errors.Is(err, catalog.ErrUnavailable):
			return domain.Book{}, ErrUpstreamUnavailable
		}
		return domain.Book{}, err
	}

	if err := s.Store.Books().CreateBook(ctx, book); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		slogx.FromContext(ctx).Warn("catalog import failed", "error", err, "isbn", isbn)
	}
	return book, nil
}

// CreateBook adds a book to the local catalog.
func (s *BookService) CreateBook(ctx context.Context, b domain.Book) (domain.Book, error) {
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	if b.ISBN == "" || b.Title == "" || b.Author == "" {
		return domain.Book{}, fmt.Errorf("%w: isbn, title and author are required", ErrInvalidQuery)
	}
	if b.PageCount != nil && *b.PageCount <= 0 {
		return domain.Book{}, fmt.Errorf("%w: page_count must be positive", ErrInvalidQuery)
	}

	if err := s.Store.Books().CreateBook(ctx, b); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Book{}, fmt.Errorf("%w: book already exists", ErrConflict)
		}
		return domain.Book{}, err
	}
	return s.Store.Books().GetBook(ctx, b.ISBN)
}

// Recommendations asks the recommender for ISBNs and resolves them against
// the local store. When the recommender is down we degrade to the popular
// books snapshot rather than failing the request.
func (s *BookService) Recommendations(ctx context.Context, userID string, topN int) ([]domain.Book, error) {
	l := slogx.FromContext(ctx)

	if topN < 1 || topN > 50 {
		topN = recommendationsDefaultN
	}

	isbns, err := s.Recommender.Recommend(ctx, userID, topN)
	if err != nil {
		l.Warn("recommender unavailable, serving popular books", "error", err, "user_id", userID)
		return s.popularFallback(ctx, topN)
	}

	books := make([]domain.Book, 0, len(isbns))
	for _, isbn := range isbns {
		b, err := s.Store.Books().GetBook(ctx, isbn)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

func (s *BookService) popularFallback(ctx context.Context, limit int) ([]domain.Book, error) {
	popular, err := s.Store.Books().PopularBooks(ctx, limit)
	if err != nil {
		return nil, ErrUpstreamUnavailable
	}

	books := make([]domain.Book, 0, len(popular))
	for _, p := range popular {
		b, err := s.Store.Books().GetBook(ctx, p.ISBN)
		if err != nil {
			continue
		}
		books = append(books, b)
	}
	return books, nil
}
