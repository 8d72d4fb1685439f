package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
)

type booksRepo struct {
	db querier
}

const bookColumns = `b.isbn, b.title, b.author, b.genre, b.description, b.cover_url, b.page_count, b.created_at`

func (r *booksRepo) GetBook(ctx context.Context, isbn string) (domain.Book, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+bookColumns+`, avg(r.rating)::float8
		FROM books b
		LEFT JOIN ratings r ON r.book_isbn = b.isbn
		WHERE b.isbn = $1
		GROUP BY b.isbn`, isbn)
	return scanBook(row)
}

func (r *booksRepo) CreateBook(ctx context.Context, b domain.Book) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO books (isbn, title, author, genre, description, cover_url, page_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ISBN, b.Title, b.Author, b.Genre, b.Description, b.CoverURL, b.PageCount)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

// searchSQL is the assembled, shared part of the two search statements. The
// count and page queries must agree on it or totals drift from pages.
type searchSQL struct {
	where   string
	having  string
	orderBy string
	args    []any
}

// buildSearchSQL renders the WHERE/HAVING/ORDER BY for a search. A book
// matches on the text query or, when boost authors are present, on author
// alone, so a suggested author's books surface even without a text hit.
// The rating filter lives in HAVING because it aggregates over the ratings
// join; when a minimum rating is requested the results are ordered by
// average rating, otherwise by text-match rank.
func buildSearchSQL(q store.SearchQuery) searchSQL {
	var s searchSQL
	arg := func(v any) string {
		s.args = append(s.args, v)
		return fmt.Sprintf("$%d", len(s.args))
	}

	queryArg := arg(q.Query)
	match := fmt.Sprintf("b.search_vector @@ websearch_to_tsquery('english', %s)", queryArg)

	boostArg := ""
	if len(q.BoostAuthors) > 0 {
		boostArg = arg(q.BoostAuthors)
		match = fmt.Sprintf("(%s OR lower(b.author) = ANY(%s))", match, boostArg)
	}

	conds := []string{match}
	if q.Author != "" {
		conds = append(conds, fmt.Sprintf("b.author ILIKE '%%' || %s || '%%'", arg(q.Author)))
	}
	if len(q.Genres) > 0 {
		conds = append(conds, fmt.Sprintf("b.genre = ANY(%s)", arg(q.Genres)))
	}
	if q.MaxPages != nil {
		// A null page_count is unknown, not over the limit.
		conds = append(conds, fmt.Sprintf("(b.page_count <= %s OR b.page_count IS NULL)", arg(*q.MaxPages)))
	}
	s.where = strings.Join(conds, " AND ")

	s.orderBy = fmt.Sprintf("ts_rank(b.search_vector, websearch_to_tsquery('english', %s)) DESC", queryArg)
	if q.MinRating != nil {
		s.having = fmt.Sprintf("HAVING avg(r.rating) >= %s", arg(*q.MinRating))
		s.orderBy = "avg(r.rating) DESC"
	}
	if boostArg != "" {
		// Boosted authors float to the top regardless of text rank.
		s.orderBy = fmt.Sprintf("(lower(b.author) = ANY(%s)) DESC, %s", boostArg, s.orderBy)
	}
	return s
}

func (r *booksRepo) SearchBooks(ctx context.Context, q store.SearchQuery) ([]domain.Book, int, error) {
	s := buildSearchSQL(q)

	countSQL := fmt.Sprintf(`
		SELECT count(*) FROM (
			SELECT b.isbn
			FROM books b
			LEFT JOIN ratings r ON r.book_isbn = b.isbn
			WHERE %s
			GROUP BY b.isbn
			%s
		) matched`, s.where, s.having)

	var total int
	if err := r.db.QueryRow(ctx, countSQL, s.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}

	pageArgs := append(append([]any(nil), s.args...), q.Offset, q.Limit)
	pageSQL := fmt.Sprintf(`
		SELECT `+bookColumns+`, avg(r.rating)::float8
		FROM books b
		LEFT JOIN ratings r ON r.book_isbn = b.isbn
		WHERE %s
		GROUP BY b.isbn
		%s
		ORDER BY %s, b.isbn
		OFFSET $%d LIMIT $%d`,
		s.where, s.having, s.orderBy, len(s.args)+1, len(s.args)+2)

	rows, err := r.db.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, b)
	}
	return books, total, rows.Err()
}

func (r *booksRepo) TitleSuggestions(ctx context.Context, prefix string, limit int) ([]domain.TitleSuggestion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT isbn, title, similarity(title, $1)::float8 AS score
		FROM books
		WHERE title ILIKE $1 || '%' OR similarity(title, $1) > 0.3
		ORDER BY score DESC, title
		LIMIT $2`, prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TitleSuggestion
	for rows.Next() {
		var s domain.TitleSuggestion
		if err := rows.Scan(&s.ISBN, &s.Title, &s.Score); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *booksRepo) AuthorSuggestions(ctx context.Context, prefix string, limit int) ([]domain.AuthorSuggestion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT author, count(*)::int AS book_count
		FROM books
		WHERE author ILIKE $1 || '%'
		GROUP BY author
		ORDER BY book_count DESC, author
		LIMIT $2`, prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuthorSuggestion
	for rows.Next() {
		var s domain.AuthorSuggestion
		if err := rows.Scan(&s.Author, &s.BookCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *booksRepo) PopularBooks(ctx context.Context, limit int) ([]domain.PopularBook, error) {
	rows, err := r.db.Query(ctx, `
		SELECT isbn, title, author, avg_rating, rating_count
		FROM popular_books
		ORDER BY rating_count DESC, avg_rating DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PopularBook
	for rows.Next() {
		var p domain.PopularBook
		if err := rows.Scan(&p.ISBN, &p.Title, &p.Author, &p.AvgRating, &p.RatingCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *booksRepo) RefreshPopularBooks(ctx context.Context) error {
	// CONCURRENTLY keeps the snapshot readable while it rebuilds.
	_, err := r.db.Exec(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY popular_books`)
	return err
}

func scanBook(row rowScanner) (domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ISBN,
		&b.Title,
		&b.Author,
		&b.Genre,
		&b.Description,
		&b.CoverURL,
		&b.PageCount,
		&b.CreatedAt,
		&b.AverageRating,
	)
	if err != nil {
		return domain.Book{}, mapNotFound(err)
	}
	return b, nil
}
