package scoring

import (
	"cmp"
	"math"
	"slices"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/types"
)

const (
	maxPriority     = 100.0
	topListSize     = 5
	completedRatio  = 0.9
	unplayedBonus   = 25.0
	inProgressBonus = 20.0
)

// completionHours returns the completion estimate only when it came from a
// completion source rather than from playtime.
func completionHours(m model.GameMetrics) (float64, bool) {
	if m.HoursSource == model.HoursPlaytime || m.EstimatedHours <= 0 {
		return 0, false
	}
	return m.EstimatedHours, true
}

// Priority ranks how soon a game should be played, 0-100. Highly rated,
// shorter, unplayed and half-finished games rank higher.
func Priority(m model.GameMetrics) float64 {
	p := m.StarRating * 20

	hours, known := completionHours(m)
	if known {
		switch {
		case hours <= 10:
			p += 15
		case hours <= 30:
			p += 10
		default:
			p += 5
		}
	}

	if m.PlaytimeMinutes == 0 {
		p += unplayedBonus
	} else if known {
		ratio := float64(m.PlaytimeMinutes) / 60 / hours
		if ratio > 0.1 && ratio < 0.8 {
			p += inProgressBonus
		}
	}
	return math.Min(p, maxPriority)
}

// Summarize aggregates stored metrics into collection statistics.
func Summarize(games []model.GameMetrics) types.CollectionStats {
	stats := types.CollectionStats{TotalGames: len(games)}
	if len(games) == 0 {
		return stats
	}

	var stars, quality, played float64
	rated := make([]types.RatedGame, 0, len(games))
	for _, g := range games {
		played += float64(g.PlaytimeMinutes) / 60
		stars += g.StarRating
		quality += g.QualityScore

		if hours, ok := completionHours(g); ok {
			stats.EstimatedHours += hours
			if float64(g.PlaytimeMinutes)/60 >= hours*completedRatio {
				stats.CompletedGames++
			}
		}
		if g.PlaytimeMinutes == 0 {
			stats.UnplayedGames++
		}
		if g.CriticScore != nil {
			stats.WithCriticScore++
		}
		if g.ReviewPositive+g.ReviewNegative > 0 {
			stats.WithReviews++
		}
		if g.Degraded() {
			stats.DegradedGames++
		}
		rated = append(rated, types.RatedGame{
			ExternalID: g.ExternalID,
			Name:       g.Name,
			StarRating: g.StarRating,
			Priority:   Priority(g),
		})
	}

	n := float64(len(games))
	stats.PlayedHours = math.Round(played)
	stats.EstimatedHours = math.Round(stats.EstimatedHours)
	stats.CompletionRate = math.Round(float64(stats.CompletedGames) / n * 100)
	stats.AverageStars = roundTo(stars/n, 1)
	stats.AverageQuality = roundTo(quality/n, 1)

	stats.TopRated = topBy(rated, func(a, b types.RatedGame) int {
		return cmp.Compare(b.StarRating, a.StarRating)
	})
	stats.PlayNext = topBy(rated, func(a, b types.RatedGame) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return stats
}

// topBy returns the first entries under order, ties broken by id.
func topBy(games []types.RatedGame, order func(a, b types.RatedGame) int) []types.RatedGame {
	sorted := slices.Clone(games)
	slices.SortStableFunc(sorted, func(a, b types.RatedGame) int {
		if c := order(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.ExternalID, b.ExternalID)
	})
	if len(sorted) > topListSize {
		sorted = sorted[:topListSize]
	}
	return sorted
}
