package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Recommender calls the recommendation service for personalised ISBN lists.
type Recommender struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewRecommender(baseURL string, timeout time.Duration, rps float64) *Recommender {
	return &Recommender{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

type recommendPayload struct {
	Recommendations []string `json:"recommendations"`
}

// Recommend returns up to topN recommended ISBNs for a user.
func (r *Recommender) Recommend(ctx context.Context, userID string, topN int) ([]string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/recommendations/%s?top_n=%d", r.baseURL, url.PathEscape(userID), topN)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload recommendPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: bad payload: %v", ErrUnavailable, err)
	}

	if len(payload.Recommendations) > topN {
		payload.Recommendations = payload.Recommendations[:topN]
	}
	return payload.Recommendations, nil
}
