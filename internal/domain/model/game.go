// Package model contains domain models passed between layers.
package model

import (
	"math"
	"time"
)

// GameIdentity is one owned game as reported by the library source.
// ExternalID keys the review source; DisplayName keys the name-matched sources.
type GameIdentity struct {
	ExternalID           int64  `json:"appid"`
	DisplayName          string `json:"name"`
	OwnedPlaytimeMinutes int    `json:"playtime_minutes"`
}

// PlaytimeHours returns owned playtime rounded to whole hours.
func (g GameIdentity) PlaytimeHours() float64 {
	if g.OwnedPlaytimeMinutes <= 0 {
		return 0
	}
	return math.Round(float64(g.OwnedPlaytimeMinutes) / 60)
}

// HoursSource records which completion figure produced EstimatedHours.
type HoursSource string

// Completion figure sources in preference order.
const (
	HoursMain          HoursSource = "main"
	HoursMainPlusExtra HoursSource = "main_plus_extra"
	HoursCompletionist HoursSource = "completionist"
	HoursPlaytime      HoursSource = "playtime"
)

// Completeness flags which signals were actually sourced. A false flag means
// the corresponding GameMetrics field holds its documented default.
type Completeness struct {
	CriticScore     bool `json:"critic_score"`
	UserScore       bool `json:"user_score"`
	Reviews         bool `json:"reviews"`
	CompletionHours bool `json:"completion_hours"`
}

// Full reports whether every signal was sourced.
func (c Completeness) Full() bool {
	return c.CriticScore && c.UserScore && c.Reviews && c.CompletionHours
}

// GameMetrics is the aggregate computed for one game in one run.
type GameMetrics struct {
	ExternalID      int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeMinutes int    `json:"playtime_minutes"`

	CriticScore    *int     `json:"critic_score"`
	UserScore      *float64 `json:"user_score"`
	ReviewPositive int      `json:"review_positive"`
	ReviewNegative int      `json:"review_negative"`

	EstimatedHours float64     `json:"estimated_hours"`
	HoursSource    HoursSource `json:"hours_source"`

	StarRating   float64 `json:"star_rating"`
	QualityScore float64 `json:"quality_score"`
	ValueRating  float64 `json:"value_rating"`

	Completeness Completeness      `json:"completeness"`
	Unavailable  map[Source]string `json:"unavailable,omitempty"`
	ComputedAt   time.Time         `json:"computed_at"`
}

// Degraded reports whether at least one signal fell back to its default.
func (m GameMetrics) Degraded() bool {
	return len(m.Unavailable) > 0
}

// Reviews returns the review counts as a sentiment value.
func (m GameMetrics) Reviews() ReviewSentiment {
	return ReviewSentiment{Positive: m.ReviewPositive, Negative: m.ReviewNegative}
}

// PositivePercentage is the display percentage, 0 when there are no reviews.
func (m GameMetrics) PositivePercentage() int {
	pct, ok := m.Reviews().Percentage()
	if !ok {
		return 0
	}
	return int(math.Round(pct))
}
