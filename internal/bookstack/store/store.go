package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// SearchQuery is the store-level search input. It mirrors the request
// filters plus the ranking hints the search service computes (author names
// to boost from the caller's recent history).
type SearchQuery struct {
	Query        string
	Author       string
	Genres       []string
	MinRating    *float64
	MaxPages     *int
	BoostAuthors []string
	Offset       int
	Limit        int
}

// Store is the root data access interface. Concrete drivers (postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable. We can change having the sub-repos as methods later but we do it
// now so we can have more control and actively stop people from accidently
// doing transactions within transactions.
type Store interface {
	Users() Users
	Sessions() Sessions
	Books() Books
	Ratings() Ratings
	Reviews() Reviews
	Bookmarks() Bookmarks
	SearchHistory() SearchHistory
	VerificationTokens() VerificationTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh rotation).
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login (email is the login identifier).
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email or username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// ActivateUser flips is_active on a freshly verified account.
	ActivateUser(ctx context.Context, userID string) error

	// UpdateLastLogin records a successful login timestamp.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}

type Sessions interface {
	// CreateSession inserts a session record (id is ULID, doubles as jti).
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSession returns a session by id regardless of expiry.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// GetActiveSession returns a session by id only if it has not expired.
	GetActiveSession(ctx context.Context, id string) (domain.Session, error)

	// ListActiveSessionsByUser returns a user's unexpired sessions, newest first.
	ListActiveSessionsByUser(ctx context.Context, userID string) ([]domain.Session, error)

	// DeleteSession removes a session. Missing rows are not an error: logout
	// and revocation are idempotent.
	DeleteSession(ctx context.Context, id string) error

	// DeleteUserSessions removes every session for a user except the ones
	// listed in keep. Returns the ids of the deleted sessions so the caller
	// can blacklist them.
	DeleteUserSessions(ctx context.Context, userID string, keep ...string) ([]string, error)

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

type Books interface {
	// GetBook returns a book by ISBN with its current average rating.
	GetBook(ctx context.Context, isbn string) (domain.Book, error)

	// CreateBook inserts a new book. Returns ErrAlreadyExists on ISBN clash.
	CreateBook(ctx context.Context, b domain.Book) error

	// SearchBooks runs the ranked full-text search and returns one page of
	// results plus the total match count.
	SearchBooks(ctx context.Context, q SearchQuery) ([]domain.Book, int, error)

	// TitleSuggestions returns titles whose trigram similarity to the prefix
	// clears the similarity threshold, best match first.
	TitleSuggestions(ctx context.Context, prefix string, limit int) ([]domain.TitleSuggestion, error)

	// AuthorSuggestions returns authors matching the prefix grouped with
	// their book counts, most prolific first.
	AuthorSuggestions(ctx context.Context, prefix string, limit int) ([]domain.AuthorSuggestion, error)

	// PopularBooks reads from the popular_books snapshot.
	PopularBooks(ctx context.Context, limit int) ([]domain.PopularBook, error)

	// RefreshPopularBooks rebuilds the popular_books snapshot (housekeeping).
	RefreshPopularBooks(ctx context.Context) error
}

type Ratings interface {
	// UpsertRating inserts or replaces the caller's rating for a book and
	// returns the stored row.
	UpsertRating(ctx context.Context, r domain.Rating) (domain.Rating, error)

	// GetRating returns a user's rating for a book.
	GetRating(ctx context.Context, userID, isbn string) (domain.Rating, error)

	// DeleteRating removes a user's rating. Returns ErrNotFound if absent.
	DeleteRating(ctx context.Context, userID, isbn string) error

	// ListUserRatings returns a page of the user's ratings with their books,
	// newest first, plus the total count.
	ListUserRatings(ctx context.Context, userID string, offset, limit int) ([]domain.Rating, int, error)
}

type Reviews interface {
	// CreateReview inserts a review. Returns ErrAlreadyExists when the user
	// has already reviewed the book.
	CreateReview(ctx context.Context, r domain.Review) error

	// GetReview returns a review by id.
	GetReview(ctx context.Context, id string) (domain.Review, error)

	// UpdateReview replaces content/rating and moderation state of a review.
	UpdateReview(ctx context.Context, r domain.Review) error

	// DeleteReview removes a review by id.
	DeleteReview(ctx context.Context, id string) error

	// ListBookReviews returns a page of a book's reviews plus the total
	// count. When approvedOnly is set, pending and rejected reviews are
	// filtered out.
	ListBookReviews(ctx context.Context, isbn string, approvedOnly bool, offset, limit int) ([]domain.Review, int, error)
}

type Bookmarks interface {
	// CreateBookmark saves a book for a user. Returns ErrAlreadyExists when
	// the bookmark is already present.
	CreateBookmark(ctx context.Context, b domain.Bookmark) error

	// DeleteBookmark removes a bookmark. Returns ErrNotFound if absent.
	DeleteBookmark(ctx context.Context, userID, isbn string) error

	// ListUserBookmarks returns a page of the user's bookmarks with their
	// books, newest first, plus the total count.
	ListUserBookmarks(ctx context.Context, userID string, offset, limit int) ([]domain.Bookmark, int, error)
}

// SearchHistory is the durable shadow of the Redis-held history. Reads are
// served from Redis; this table only exists so history survives a cache
// flush and can be audited.
type SearchHistory interface {
	// AppendSearch records a query for a user.
	AppendSearch(ctx context.Context, userID, query string, at time.Time) error

	// DeleteSearch removes every record of one query for a user.
	DeleteSearch(ctx context.Context, userID, query string) error

	// DeleteAllSearches wipes a user's history.
	DeleteAllSearches(ctx context.Context, userID string) error

	// DeleteOldSearches removes entries older than the cutoff (housekeeping).
	DeleteOldSearches(ctx context.Context, before time.Time) (int64, error)
}

type VerificationTokens interface {
	// CreateVerificationToken stores a freshly minted email verification token.
	CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error

	// GetVerificationToken fetches a token only if it has not expired.
	GetVerificationToken(ctx context.Context, token string) (domain.VerificationToken, error)

	// DeleteVerificationToken removes a token after use.
	DeleteVerificationToken(ctx context.Context, token string) error

	// DeleteExpiredVerificationTokens is housekeeping.
	DeleteExpiredVerificationTokens(ctx context.Context) (int64, error)
}
