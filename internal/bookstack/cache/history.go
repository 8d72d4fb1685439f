package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	historyKeyPattern = "user:%s:search_history"

	// HistoryMaxEntries is how many queries are retained per user.
	HistoryMaxEntries = 10

	// HistoryTTL is how long an untouched history survives. The TTL is
	// re-armed on every recorded search.
	HistoryTTL = 30 * 24 * time.Hour
)

// HistoryEntry is one remembered search with the moment it happened.
type HistoryEntry struct {
	Query string
	At    time.Time
}

// HistoryStore keeps each user's recent search queries in a sorted set
// scored by unix timestamp. Re-searching a query bumps its score instead of
// adding a duplicate.
type HistoryStore struct {
	rdb *redis.Client
}

func NewHistoryStore(rdb *redis.Client) *HistoryStore {
	return &HistoryStore{rdb: rdb}
}

func historyKey(userID string) string {
	return fmt.Sprintf(historyKeyPattern, userID)
}

// Record appends a query, trims the set to the newest HistoryMaxEntries and
// re-arms the TTL, all in one round trip.
func (h *HistoryStore) Record(ctx context.Context, userID, query string, at time.Time) error {
	key := historyKey(userID)

	pipe := h.rdb.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.Unix()), Member: query})
	pipe.ZRemRangeByRank(ctx, key, 0, -(HistoryMaxEntries + 1))
	pipe.Expire(ctx, key, HistoryTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Recent returns up to limit entries, newest first.
func (h *HistoryStore) Recent(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	zs, err := h.rdb.ZRevRangeWithScores(ctx, historyKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(zs))
	for _, z := range zs {
		query, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, HistoryEntry{
			Query: query,
			At:    time.Unix(int64(z.Score), 0).UTC(),
		})
	}
	return entries, nil
}

// Remove deletes a single remembered query.
func (h *HistoryStore) Remove(ctx context.Context, userID, query string) error {
	return h.rdb.ZRem(ctx, historyKey(userID), query).Err()
}

// Clear wipes a user's entire history.
func (h *HistoryStore) Clear(ctx context.Context, userID string) error {
	return h.rdb.Del(ctx, historyKey(userID)).Err()
}
