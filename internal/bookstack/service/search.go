package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/cryptox"
	"github.com/aussiebroadwan/bookstack/pkg/slogx"
)

const (
	searchCacheTTL    = time.Hour
	searchMinQueryLen = 2
	searchMaxQueryLen = 200
	defaultPerPage    = 20
	maxPerPage        = 100
)

// ResultCache stores serialized responses keyed by request fingerprint.
// All uses in this package fail open: a cache problem costs latency, never
// correctness.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SearchService runs ranked catalog searches with caching and personalised
// author boosting from the caller's recent history.
type SearchService struct {
	Store   store.Store
	Cache   ResultCache
	History *HistoryService
}

// Search validates and normalizes the request, then serves it from cache or
// the store. Non-empty results are remembered in the caller's history.
func (s *SearchService) Search(ctx context.Context, userID string, f domain.SearchFilters) (*domain.SearchPage, error) {
	l := slogx.FromContext(ctx)

	norm, err := normalizeFilters(f)
	if err != nil {
		return nil, err
	}

	key := searchCacheKey(norm)
	if payload, err := s.Cache.Get(ctx, key); err != nil {
		l.Warn("search cache read failed", "error", err)
	} else if payload != nil {
		var page domain.SearchPage
		if err := json.Unmarshal(payload, &page); err == nil {
			s.logHistory(ctx, userID, norm.Query, page.Total)
			return &page, nil
		}
		l.Warn("search cache payload corrupt, ignoring", "key", key)
	}

	query := store.SearchQuery{
		Query:        norm.Query,
		Author:       norm.Author,
		Genres:       norm.Genres,
		MinRating:    norm.MinRating,
		MaxPages:     norm.MaxPages,
		BoostAuthors: s.boostAuthors(ctx, norm.Query),
		Offset:       (norm.Page - 1) * norm.PerPage,
		Limit:        norm.PerPage,
	}

	results, total, err := s.Store.Books().SearchBooks(ctx, query)
	if err != nil {
		return nil, err
	}

	page := &domain.SearchPage{
		Results: results,
		Total:   total,
		Page:    norm.Page,
		PerPage: norm.PerPage,
		Filters: norm,
	}

	if payload, err := json.Marshal(page); err == nil {
		if err := s.Cache.Set(ctx, key, payload, searchCacheTTL); err != nil {
			l.Warn("search cache write failed", "error", err)
		}
	}

	s.logHistory(ctx, userID, norm.Query, total)
	return page, nil
}

// boostAuthors resolves the query to suggested author names so books by a
// matching author surface even when the text query misses them. Fail-open: a
// broken lookup costs the boost, never the search.
func (s *SearchService) boostAuthors(ctx context.Context, query string) []string {
	suggestions, err := s.Store.Books().AuthorSuggestions(ctx, query, suggestAuthorCap)
	if err != nil {
		slogx.FromContext(ctx).Warn("author boost lookup failed", "error", err)
		return nil
	}
	authors := make([]string, 0, len(suggestions))
	for _, a := range suggestions {
		authors = append(authors, strings.ToLower(a.Author))
	}
	return authors
}

func (s *SearchService) logHistory(ctx context.Context, userID, query string, total int) {
	if userID == "" || total == 0 {
		return
	}
	if err := s.History.Log(ctx, userID, query); err != nil {
		slogx.FromContext(ctx).Warn("history log failed", "error", err, "user_id", userID)
	}
}

// normalizeFilters validates the request and produces its canonical form,
// which doubles as the cache key material.
func normalizeFilters(f domain.SearchFilters) (domain.SearchFilters, error) {
	f.Query = strings.ToLower(strings.Join(strings.Fields(f.Query), " "))
	// Limits count runes, not bytes: a one-rune multi-byte query is still
	// one character.
	if utf8.RuneCountInString(f.Query) < searchMinQueryLen {
		return f, fmt.Errorf("%w: query must be at least %d characters", ErrInvalidQuery, searchMinQueryLen)
	}
	if utf8.RuneCountInString(f.Query) > searchMaxQueryLen {
		return f, fmt.Errorf("%w: query too long", ErrInvalidQuery)
	}

	f.Author = strings.TrimSpace(f.Author)

	genres := make([]string, 0, len(f.Genres))
	for _, g := range f.Genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if !isSafeTerm(g) {
			return f, fmt.Errorf("%w: invalid genre %q", ErrInvalidQuery, g)
		}
		genres = append(genres, g)
	}
	if len(genres) == 0 {
		genres = nil
	}
	f.Genres = genres

	if f.MinRating != nil && (*f.MinRating < 1 || *f.MinRating > 5) {
		return f, fmt.Errorf("%w: min_rating must be between 1 and 5", ErrInvalidQuery)
	}
	if f.MaxPages != nil && *f.MaxPages <= 0 {
		return f, fmt.Errorf("%w: max_pages must be positive", ErrInvalidQuery)
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}

	return f, nil
}

// searchCacheKey fingerprints the canonical request so equivalent searches
// share a cache entry without the raw query leaking into key space.
func searchCacheKey(f domain.SearchFilters) string {
	payload, _ := json.Marshal(f)
	return "search:" + cryptox.FingerprintToken(string(payload))
}

// isSafeTerm allows letters, digits, spaces and hyphens only.
func isSafeTerm(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	return true
}
