package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/signal"
)

// SourceSteamReviews names the review source.
const SourceSteamReviews = "steam_reviews"

type reviewsResponse struct {
	Success      int `json:"success"`
	QuerySummary struct {
		TotalPositive int `json:"total_positive"`
		TotalNegative int `json:"total_negative"`
		TotalReviews  int `json:"total_reviews"`
	} `json:"query_summary"`
}

// SteamReviews reads the review summary of a store app.
type SteamReviews struct {
	client *client
}

// NewSteamReviews creates a review provider rooted at the store base URL.
func NewSteamReviews(baseURL string, opts ...Option) *SteamReviews {
	return &SteamReviews{client: newClient(SourceSteamReviews, strings.TrimRight(baseURL, "/"), opts...)}
}

// FetchReviews implements signal.ReviewProvider.
func (s *SteamReviews) FetchReviews(ctx context.Context, appID int64) (model.ReviewSentiment, error) {
	path := fmt.Sprintf("/appreviews/%d?json=1&language=all&purchase_type=all&review_type=all&num_per_page=0", appID)
	body, err := s.client.get(ctx, path, nil)
	if err != nil {
		return model.ReviewSentiment{}, err
	}

	var resp reviewsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.ReviewSentiment{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if resp.Success != 1 {
		return model.ReviewSentiment{}, signal.ErrNoMatch
	}

	// An app without reviews is a valid 0/0 summary.
	return model.ReviewSentiment{
		Positive: resp.QuerySummary.TotalPositive,
		Negative: resp.QuerySummary.TotalNegative,
	}, nil
}
