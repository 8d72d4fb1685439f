package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/cache"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/slogx"
)

const (
	historyMaxQueryLen = 200
	historyRecentAge   = 24 * time.Hour
	historyPageSize    = 10
)

// HistoryCache is the Redis side of search history. It is the read path;
// the store table is only a durable shadow.
type HistoryCache interface {
	Record(ctx context.Context, userID, query string, at time.Time) error
	Recent(ctx context.Context, userID string, limit int) ([]cache.HistoryEntry, error)
	Remove(ctx context.Context, userID, query string) error
	Clear(ctx context.Context, userID string) error
}

// HistoryService keeps a small window of each user's recent searches.
type HistoryService struct {
	Store store.Store
	Cache HistoryCache
}

// normalizeQuery folds a raw search query into its canonical history form.
// Truncation is by rune so a multi-byte character is never split.
func normalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if utf8.RuneCountInString(q) > historyMaxQueryLen {
		q = string([]rune(q)[:historyMaxQueryLen])
	}
	return q
}

// Log records a search. The Redis write is the one that matters; the
// durable insert is best-effort and only logged on failure.
func (s *HistoryService) Log(ctx context.Context, userID, query string) error {
	q := normalizeQuery(query)
	if q == "" {
		return nil
	}
	now := time.Now().UTC()

	if err := s.Cache.Record(ctx, userID, q, now); err != nil {
		return err
	}

	if err := s.Store.SearchHistory().AppendSearch(ctx, userID, q, now); err != nil {
		slogx.FromContext(ctx).Error("durable history insert failed", "error", err, "user_id", userID)
	}
	return nil
}

// Get returns up to ten entries, newest first, flagging ones from the last
// 24 hours.
func (s *HistoryService) Get(ctx context.Context, userID string) ([]domain.SearchHistoryEntry, error) {
	raw, err := s.Cache.Recent(ctx, userID, historyPageSize)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]domain.SearchHistoryEntry, 0, len(raw))
	for _, e := range raw {
		out = append(out, domain.SearchHistoryEntry{
			Query:     e.Query,
			Timestamp: e.At,
			IsRecent:  now.Sub(e.At) < historyRecentAge,
		})
	}
	return out, nil
}

// Delete removes one remembered query from both stores. Unlike Log, a
// failure here is surfaced: the user asked for the data to go away.
func (s *HistoryService) Delete(ctx context.Context, userID, query string) error {
	q := normalizeQuery(query)
	if err := s.Cache.Remove(ctx, userID, q); err != nil {
		return err
	}
	return s.Store.SearchHistory().DeleteSearch(ctx, userID, q)
}

// Clear wipes a user's history from both stores.
func (s *HistoryService) Clear(ctx context.Context, userID string) error {
	if err := s.Cache.Clear(ctx, userID); err != nil {
		return err
	}
	return s.Store.SearchHistory().DeleteAllSearches(ctx, userID)
}
