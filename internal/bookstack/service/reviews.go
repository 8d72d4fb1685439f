package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/idx"
	"github.com/aussiebroadwan/bookstack/pkg/slogx"
)

const (
	reviewMinContentLen = 10
	reviewMaxContentLen = 5000
	reviewCacheTTL      = 10 * time.Minute
)

// ReviewService manages moderated book reviews. New and edited reviews sit
// in pending until a moderator approves them; only approved reviews show up
// in public listings.
type ReviewService struct {
	Store store.Store
	Cache ResultCache
}

// Create submits a review for moderation. One review per user per book.
func (s *ReviewService) Create(ctx context.Context, userID, isbn, content string, rating int) (domain.Review, error) {
	content = strings.TrimSpace(content)
	if err := validateReview(content, rating); err != nil {
		return domain.Review{}, err
	}

	if _, err := s.Store.Books().GetBook(ctx, isbn); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}

	review := domain.Review{
		ID:       idx.New().String(),
		UserID:   userID,
		BookISBN: isbn,
		Content:  content,
		Rating:   rating,
		Status:   domain.ReviewPending,
	}
	if err := s.Store.Reviews().CreateReview(ctx, review); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Review{}, fmt.Errorf("%w: you have already reviewed this book", ErrConflict)
		}
		return domain.Review{}, err
	}

	return s.get(ctx, review.ID)
}

// Update edits the caller's own review. Edits reset the review to pending
// so it goes through moderation again.
func (s *ReviewService) Update(ctx context.Context, userID, reviewID, content string, rating int) (domain.Review, error) {
	content = strings.TrimSpace(content)
	if err := validateReview(content, rating); err != nil {
		return domain.Review{}, err
	}

	review, err := s.get(ctx, reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	if review.UserID != userID {
		return domain.Review{}, ErrForbidden
	}

	review.Content = content
	review.Rating = rating
	review.Status = domain.ReviewPending
	review.IsEdited = true

	if err := s.Store.Reviews().UpdateReview(ctx, review); err != nil {
		return domain.Review{}, err
	}

	s.invalidate(ctx, review.BookISBN)
	return s.get(ctx, reviewID)
}

// Delete removes the caller's own review.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID string) error {
	review, err := s.get(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return ErrForbidden
	}

	if err := s.Store.Reviews().DeleteReview(ctx, reviewID); err != nil {
		return err
	}
	s.invalidate(ctx, review.BookISBN)
	return nil
}

// Moderate sets a review's moderation state.
func (s *ReviewService) Moderate(ctx context.Context, reviewID string, status domain.ReviewStatus) (domain.Review, error) {
	if status != domain.ReviewApproved && status != domain.ReviewRejected {
		return domain.Review{}, fmt.Errorf("%w: status must be approved or rejected", ErrInvalidQuery)
	}

	review, err := s.get(ctx, reviewID)
	if err != nil {
		return domain.Review{}, err
	}

	review.Status = status
	if err := s.Store.Reviews().UpdateReview(ctx, review); err != nil {
		return domain.Review{}, err
	}

	s.invalidate(ctx, review.BookISBN)
	return s.get(ctx, reviewID)
}

// reviewPage is the cached shape of a book's approved-review listing.
type reviewPage struct {
	Reviews []domain.Review `json:"reviews"`
	Total   int             `json:"total"`
}

// ListForBook returns a page of a book's approved reviews. Only the first
// default page is cached, so one key per book covers invalidation.
func (s *ReviewService) ListForBook(ctx context.Context, isbn string, page, perPage int) ([]domain.Review, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	l := slogx.FromContext(ctx)
	key := "reviews:" + isbn
	cacheable := page == 1 && perPage == defaultPerPage

	if cacheable {
		if payload, err := s.Cache.Get(ctx, key); err != nil {
			l.Warn("review cache read failed", "error", err, "isbn", isbn)
		} else if payload != nil {
			var cached reviewPage
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached.Reviews, cached.Total, nil
			}
			l.Warn("review cache payload corrupt, ignoring", "key", key)
		}
	}

	reviews, total, err := s.Store.Reviews().ListBookReviews(ctx, isbn, true, (page-1)*perPage, perPage)
	if err != nil {
		return nil, 0, err
	}

	if cacheable {
		if payload, err := json.Marshal(reviewPage{Reviews: reviews, Total: total}); err == nil {
			if err := s.Cache.Set(ctx, key, payload, reviewCacheTTL); err != nil {
				l.Warn("review cache write failed", "error", err, "isbn", isbn)
			}
		}
	}
	return reviews, total, nil
}

func (s *ReviewService) get(ctx context.Context, reviewID string) (domain.Review, error) {
	review, err := s.Store.Reviews().GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// invalidate drops the cached review listing for a book. Fail-open.
func (s *ReviewService) invalidate(ctx context.Context, isbn string) {
	if err := s.Cache.Delete(ctx, "reviews:"+isbn); err != nil {
		slogx.FromContext(ctx).Warn("review cache invalidation failed", "error", err, "isbn", isbn)
	}
}

func validateReview(content string, rating int) error {
	if len(content) < reviewMinContentLen {
		return fmt.Errorf("%w: review must be at least %d characters", ErrInvalidQuery, reviewMinContentLen)
	}
	if len(content) > reviewMaxContentLen {
		return fmt.Errorf("%w: review too long", ErrInvalidQuery)
	}
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidQuery)
	}
	return nil
}
