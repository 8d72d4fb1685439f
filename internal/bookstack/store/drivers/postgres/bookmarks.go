package postgres

import (
	"context"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
)

type bookmarksRepo struct {
	db querier
}

func (r *bookmarksRepo) CreateBookmark(ctx context.Context, b domain.Bookmark) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bookmarks (id, user_id, book_isbn)
		VALUES ($1, $2, $3)`,
		b.ID, b.UserID, b.BookISBN)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *bookmarksRepo) DeleteBookmark(ctx context.Context, userID, isbn string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND book_isbn = $2`, userID, isbn)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *bookmarksRepo) ListUserBookmarks(ctx context.Context, userID string, offset, limit int) ([]domain.Bookmark, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM bookmarks WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT bm.id, bm.user_id, bm.book_isbn, bm.created_at,
		       `+bookColumns+`
		FROM bookmarks bm
		JOIN books b ON b.isbn = bm.book_isbn
		WHERE bm.user_id = $1
		ORDER BY bm.created_at DESC
		OFFSET $2 LIMIT $3`, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Bookmark
	for rows.Next() {
		var bm domain.Bookmark
		var b domain.Book
		err := rows.Scan(
			&bm.ID, &bm.UserID, &bm.BookISBN, &bm.CreatedAt,
			&b.ISBN, &b.Title, &b.Author, &b.Genre, &b.Description, &b.CoverURL, &b.PageCount, &b.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		bm.Book = &b
		out = append(out, bm)
	}
	return out, total, rows.Err()
}
