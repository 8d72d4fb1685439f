package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/idx"
)

// RatingService manages per-user star ratings. A user holds at most one
// rating per book; rating again replaces the old value.
type RatingService struct {
	Store store.Store
}

// Rate upserts the caller's rating for a book.
func (s *RatingService) Rate(ctx context.Context, userID, isbn string, value int) (domain.Rating, error) {
	if value < 1 || value > 5 {
		return domain.Rating{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidQuery)
	}

	if _, err := s.Store.Books().GetBook(ctx, isbn); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}

	rating, err := s.Store.Ratings().UpsertRating(ctx, domain.Rating{
		ID:       idx.New().String(),
		UserID:   userID,
		BookISBN: isbn,
		Rating:   value,
	})
	if err != nil {
		return domain.Rating{}, err
	}
	return rating, nil
}

// Get returns the caller's rating for a book.
func (s *RatingService) Get(ctx context.Context, userID, isbn string) (domain.Rating, error) {
	rating, err := s.Store.Ratings().GetRating(ctx, userID, isbn)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// Delete removes the caller's rating for a book.
func (s *RatingService) Delete(ctx context.Context, userID, isbn string) error {
	if err := s.Store.Ratings().DeleteRating(ctx, userID, isbn); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// List returns a page of the caller's ratings, newest first.
func (s *RatingService) List(ctx context.Context, userID string, page, perPage int) ([]domain.Rating, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return s.Store.Ratings().ListUserRatings(ctx, userID, (page-1)*perPage, perPage)
}
