// Package types contains common types used across the application
package types

// RatedGame is one entry of a collection's top list.
type RatedGame struct {
	ExternalID int64   `json:"appid"`
	Name       string  `json:"name"`
	StarRating float64 `json:"star_rating"`
	Priority   float64 `json:"priority"`
}

// CollectionStats summarizes the stored metrics of one user's library.
type CollectionStats struct {
	TotalGames      int         `json:"total_games"`
	PlayedHours     float64     `json:"played_hours"`
	EstimatedHours  float64     `json:"estimated_hours"`
	CompletedGames  int         `json:"completed_games"`
	CompletionRate  float64     `json:"completion_rate"`
	UnplayedGames   int         `json:"unplayed_games"`
	AverageStars    float64     `json:"average_stars"`
	AverageQuality  float64     `json:"average_quality"`
	WithCriticScore int         `json:"with_critic_score"`
	WithReviews     int         `json:"with_reviews"`
	DegradedGames   int         `json:"degraded_games"`
	TopRated        []RatedGame `json:"top_rated"`
	PlayNext        []RatedGame `json:"play_next"`
}
