package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/idx"
	"github.com/aussiebroadwan/bookstack/pkg/slogx"
)

const bookmarkCacheTTL = 10 * time.Minute

// BookmarkService manages per-user saved books.
type BookmarkService struct {
	Store store.Store
	Cache ResultCache
}

// Add bookmarks a book for the caller.
func (s *BookmarkService) Add(ctx context.Context, userID, isbn string) (domain.Bookmark, error) {
	if _, err := s.Store.Books().GetBook(ctx, isbn); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Bookmark{}, ErrNotFound
		}
		return domain.Bookmark{}, err
	}

	bookmark := domain.Bookmark{
		ID:       idx.New().String(),
		UserID:   userID,
		BookISBN: isbn,
	}
	if err := s.Store.Bookmarks().CreateBookmark(ctx, bookmark); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Bookmark{}, fmt.Errorf("%w: book already bookmarked", ErrConflict)
		}
		return domain.Bookmark{}, err
	}

	s.invalidate(ctx, userID)
	return bookmark, nil
}

// Remove deletes the caller's bookmark for a book.
func (s *BookmarkService) Remove(ctx context.Context, userID, isbn string) error {
	if err := s.Store.Bookmarks().DeleteBookmark(ctx, userID, isbn); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.invalidate(ctx, userID)
	return nil
}

// bookmarkPage is the cached shape of a user's bookmark listing.
type bookmarkPage struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
	Total     int               `json:"total"`
}

// List returns a page of the caller's bookmarks, newest first. Only the
// first default page is cached, so one key per user covers invalidation.
func (s *BookmarkService) List(ctx context.Context, userID string, page, perPage int) ([]domain.Bookmark, int, error) {
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
	key := "bookmarks:" + userID
	cacheable := page == 1 && perPage == defaultPerPage

	if cacheable {
		if payload, err := s.Cache.Get(ctx, key); err != nil {
			l.Warn("bookmark cache read failed", "error", err, "user_id", userID)
		} else if payload != nil {
			var cached bookmarkPage
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached.Bookmarks, cached.Total, nil
			}
			l.Warn("bookmark cache payload corrupt, ignoring", "key", key)
		}
	}

	bookmarks, total, err := s.Store.Bookmarks().ListUserBookmarks(ctx, userID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, 0, err
	}

	if cacheable {
		if payload, err := json.Marshal(bookmarkPage{Bookmarks: bookmarks, Total: total}); err == nil {
			if err := s.Cache.Set(ctx, key, payload, bookmarkCacheTTL); err != nil {
				l.Warn("bookmark cache write failed", "error", err, "user_id", userID)
			}
		}
	}
	return bookmarks, total, nil
}

// invalidate drops the cached bookmark listing for a user. Fail-open.
func (s *BookmarkService) invalidate(ctx context.Context, userID string) {
	if err := s.Cache.Delete(ctx, "bookmarks:"+userID); err != nil {
		slogx.FromContext(ctx).Warn("bookmark cache invalidation failed", "error", err, "user_id", userID)
	}
}
