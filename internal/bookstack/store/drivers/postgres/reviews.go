package postgres

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
)

type reviewsRepo struct {
	db querier
}

const reviewColumns = `id, user_id, book_isbn, content, rating, status, is_edited, created_at, updated_at`

func (r *reviewsRepo) CreateReview(ctx context.Context, rv domain.Review) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reviews (id, user_id, book_isbn, content, rating, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rv.ID, rv.UserID, rv.BookISBN, rv.Content, rv.Rating, rv.Status)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *reviewsRepo) GetReview(ctx context.Context, id string) (domain.Review, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	return scanReview(row)
}

func (r *reviewsRepo) UpdateReview(ctx context.Context, rv domain.Review) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE reviews
		SET content = $2, rating = $3, status = $4, is_edited = $5, updated_at = now()
		WHERE id = $1`,
		rv.ID, rv.Content, rv.Rating, rv.Status, rv.IsEdited)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *reviewsRepo) DeleteReview(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *reviewsRepo) ListBookReviews(ctx context.Context, isbn string, approvedOnly bool, offset, limit int) ([]domain.Review, int, error) {
	where := `book_isbn = $1`
	args := []any{isbn}
	if approvedOnly {
		where += ` AND status = $2`
		args = append(args, domain.ReviewApproved)
	}

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM reviews WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, offset, limit)
	pageSQL := fmt.Sprintf(`
		SELECT %s
		FROM reviews
		WHERE %s
		ORDER BY created_at DESC
		OFFSET $%d LIMIT $%d`, reviewColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, pageSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rv)
	}
	return out, total, rows.Err()
}

func scanReview(row rowScanner) (domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID,
		&rv.UserID,
		&rv.BookISBN,
		&rv.Content,
		&rv.Rating,
		&rv.Status,
		&rv.IsEdited,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return domain.Review{}, mapNotFound(err)
	}
	return rv, nil
}
