package domain

import "time"

type Book struct {
	ISBN          string    `json:"isbn"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         *string   `json:"genre,omitempty"`
	Description   *string   `json:"description,omitempty"`
	CoverURL      *string   `json:"cover_url,omitempty"`
	PageCount     *int      `json:"page_count,omitempty"`
	AverageRating *float64  `json:"average_rating,omitempty"` // read-time aggregate over ratings, not stored state
	CreatedAt     time.Time `json:"created_at"`
}

type Rating struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookISBN  string    `json:"book_isbn"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Book *Book `json:"book,omitempty"` // populated on list queries
}

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

type Review struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	BookISBN  string       `json:"book_isbn"`
	Content   string       `json:"content"`
	Rating    int          `json:"rating"`
	Status    ReviewStatus `json:"status"`
	IsEdited  bool         `json:"is_edited"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookISBN  string    `json:"book_isbn"`
	CreatedAt time.Time `json:"created_at"`

	Book *Book `json:"book,omitempty"` // populated on list queries
}
