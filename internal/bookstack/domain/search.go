package domain

import "time"

// SearchFilters is the typed shape of a search request. Optional filters are
// pointers so "absent" and "explicit zero" stay distinguishable.
type SearchFilters struct {
	Query     string   `json:"query"`
	Author    string   `json:"author,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
	MaxPages  *int     `json:"max_pages,omitempty"`
	Page      int      `json:"page"`
	PerPage   int      `json:"per_page"`
}

// SearchPage is one page of ranked results plus pagination metadata. It is
// the unit cached by the search service, so the whole struct must round-trip
// through JSON unchanged.
type SearchPage struct {
	Results []Book        `json:"results"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	Filters SearchFilters `json:"filters"`
}

type TitleSuggestion struct {
	ISBN  string  `json:"isbn"`
	Title string  `json:"title"`
	Score float64 `json:"score"` // trigram similarity against the prefix
}

type AuthorSuggestion struct {
	Author    string `json:"author"`
	BookCount int    `json:"book_count"`
}

// PopularBook is a row of the periodically refreshed popular_books snapshot.
type PopularBook struct {
	ISBN        string  `json:"isbn"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	AvgRating   float64 `json:"avg_rating"`
	RatingCount int     `json:"rating_count"`
}

// Suggestions aggregates the three independently computed suggestion lists.
// Any branch may be empty if its lookup failed; the others still count.
type Suggestions struct {
	Titles  []TitleSuggestion  `json:"titles"`
	Authors []AuthorSuggestion `json:"authors"`
	Popular []PopularBook      `json:"popular"`
}

type SearchHistoryEntry struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
	IsRecent  bool      `json:"is_recent"` // searched within the last 24h
}
