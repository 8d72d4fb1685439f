package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/bookstack/pkg/idx"
)

type searchHistoryRepo struct {
	db querier
}

func (r *searchHistoryRepo) AppendSearch(ctx context.Context, userID, query string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO search_history (id, user_id, query, created_at)
		VALUES ($1, $2, $3, $4)`,
		idx.New().String(), userID, query, at)
	return err
}

func (r *searchHistoryRepo) DeleteSearch(ctx context.Context, userID, query string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM search_history WHERE user_id = $1 AND query = $2`, userID, query)
	return err
}

func (r *searchHistoryRepo) DeleteAllSearches(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM search_history WHERE user_id = $1`, userID)
	return err
}

func (r *searchHistoryRepo) DeleteOldSearches(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM search_history WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
