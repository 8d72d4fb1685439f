package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/slogx"
)

const (
	suggestCacheTTL     = time.Hour
	suggestMinPrefixLen = 2
	suggestTitleCap     = 5
	suggestAuthorCap    = 3
	suggestPopularCap   = 3
)

// SuggestService powers search-as-you-type. The three suggestion branches
// run concurrently and fail independently: a broken branch contributes an
// empty list and a log line, never an error.
type SuggestService struct {
	Store store.Store
	Cache ResultCache
}

// Suggest returns title, author and popular-book suggestions for a prefix.
func (s *SuggestService) Suggest(ctx context.Context, prefix string) (*domain.Suggestions, error) {
	l := slogx.FromContext(ctx)

	prefix = strings.TrimSpace(prefix)
	if len(prefix) < suggestMinPrefixLen {
		return nil, fmt.Errorf("%w: prefix must be at least %d characters", ErrInvalidQuery, suggestMinPrefixLen)
	}
	if !isSafeTerm(prefix) {
		return nil, fmt.Errorf("%w: prefix contains invalid characters", ErrInvalidQuery)
	}

	key := "suggest:" + strings.ToLower(prefix)
	if payload, err := s.Cache.Get(ctx, key); err != nil {
		l.Warn("suggestion cache read failed", "error", err)
	} else if payload != nil {
		var out domain.Suggestions
		if err := json.Unmarshal(payload, &out); err == nil {
			return &out, nil
		}
		l.Warn("suggestion cache payload corrupt, ignoring", "key", key)
	}

	var (
		wg  sync.WaitGroup
		out domain.Suggestions
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		titles, err := s.Store.Books().TitleSuggestions(ctx, prefix, suggestTitleCap)
		if err != nil {
			l.Warn("title suggestions failed", "error", err)
			return
		}
		out.Titles = titles
	}()
	go func() {
		defer wg.Done()
		authors, err := s.Store.Books().AuthorSuggestions(ctx, prefix, suggestAuthorCap)
		if err != nil {
			l.Warn("author suggestions failed", "error", err)
			return
		}
		out.Authors = authors
	}()
	go func() {
		defer wg.Done()
		popular, err := s.Store.Books().PopularBooks(ctx, suggestPopularCap)
		if err != nil {
			l.Warn("popular suggestions failed", "error", err)
			return
		}
		out.Popular = popular
	}()
	wg.Wait()

	if payload, err := json.Marshal(&out); err == nil {
		if err := s.Cache.Set(ctx, key, payload, suggestCacheTTL); err != nil {
			l.Warn("suggestion cache write failed", "error", err)
		}
	}

	return &out, nil
}
