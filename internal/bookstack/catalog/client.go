// Package catalog talks to the external book catalog and recommendation
// services. Both clients are rate limited so a burst of user traffic cannot
// get this service throttled or banned upstream.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
)

var (
	// ErrNotFound covers both a genuine upstream 404 and a lookup timeout:
	// callers fall back to local data either way.
	ErrNotFound = errors.New("catalog: book not found")

	// ErrUnavailable reports that the upstream refused or failed the
	// request (auth problems, 5xx, connection errors).
	ErrUnavailable = errors.New("catalog: upstream unavailable")
)

// Client fetches book metadata from the external catalog by ISBN.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a catalog client. rps caps outbound requests per second.
func NewClient(baseURL string, timeout time.Duration, rps float64) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

type bookPayload struct {
	ISBN        string  `json:"isbn"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Genre       *string `json:"genre"`
	Description *string `json:"description"`
	CoverURL    *string `json:"cover_url"`
	PageCount   *int    `json:"page_count"`
}

// Lookup fetches a single book's metadata by ISBN.
func (c *Client) Lookup(ctx context.Context, isbn string) (domain.Book, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Book{}, err
	}

	endpoint := fmt.Sprintf("%s/books/%s", c.baseURL, url.PathEscape(isbn))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Book{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts degrade to "not found" so the caller can serve what it
		// has locally instead of failing the whole request.
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return domain.Book{}, ErrNotFound
		}
		return domain.Book{}, ErrUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// handled below
	case resp.StatusCode == http.StatusNotFound:
		return domain.Book{}, ErrNotFound
	default:
		return domain.Book{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload bookPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Book{}, fmt.Errorf("%w: bad payload: %v", ErrUnavailable, err)
	}

	return domain.Book{
		ISBN:        payload.ISBN,
		Title:       payload.Title,
		Author:      payload.Author,
		Genre:       payload.Genre,
		Description: payload.Description,
		CoverURL:    payload.CoverURL,
		PageCount:   payload.PageCount,
	}, nil
}
