package postgres

import (
	"context"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
)

type ratingsRepo struct {
	db querier
}

func (r *ratingsRepo) UpsertRating(ctx context.Context, rating domain.Rating) (domain.Rating, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO ratings (id, user_id, book_isbn, rating)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, book_isbn)
		DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()
		RETURNING id, user_id, book_isbn, rating, created_at, updated_at`,
		rating.ID, rating.UserID, rating.BookISBN, rating.Rating)

	var out domain.Rating
	err := row.Scan(&out.ID, &out.UserID, &out.BookISBN, &out.Rating, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return domain.Rating{}, mapNotFound(err)
	}
	return out, nil
}

func (r *ratingsRepo) GetRating(ctx context.Context, userID, isbn string) (domain.Rating, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, book_isbn, rating, created_at, updated_at
		FROM ratings
		WHERE user_id = $1 AND book_isbn = $2`, userID, isbn)

	var out domain.Rating
	err := row.Scan(&out.ID, &out.UserID, &out.BookISBN, &out.Rating, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return domain.Rating{}, mapNotFound(err)
	}
	return out, nil
}

func (r *ratingsRepo) DeleteRating(ctx context.Context, userID, isbn string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM ratings WHERE user_id = $1 AND book_isbn = $2`, userID, isbn)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ratingsRepo) ListUserRatings(ctx context.Context, userID string, offset, limit int) ([]domain.Rating, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM ratings WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.user_id, r.book_isbn, r.rating, r.created_at, r.updated_at,
		       `+bookColumns+`
		FROM ratings r
		JOIN books b ON b.isbn = r.book_isbn
		WHERE r.user_id = $1
		ORDER BY r.updated_at DESC
		OFFSET $2 LIMIT $3`, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Rating
	for rows.Next() {
		var rt domain.Rating
		var b domain.Book
		err := rows.Scan(
			&rt.ID, &rt.UserID, &rt.BookISBN, &rt.Rating, &rt.CreatedAt, &rt.UpdatedAt,
			&b.ISBN, &b.Title, &b.Author, &b.Genre, &b.Description, &b.CoverURL, &b.PageCount, &b.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		rt.Book = &b
		out = append(out, rt)
	}
	return out, total, rows.Err()
}
