// Package scoring holds the pure formulas that turn resolved signals into
// derived ratings. Every function here is deterministic.
package scoring

import (
	"math"

	"github.com/steamcompass/compass/internal/domain/model"
)

// Star rating weights.
const (
	criticWeight   = 0.4
	reviewWeight   = 0.35
	userWeight     = 0.15
	durationWeight = 0.10
	signalWeight   = criticWeight + reviewWeight + userWeight

	neutralStars = 3.0
	minStars     = 1.0
	maxStars     = 5.0
)

// Quality score weights.
const (
	qualityBase         = 50.0
	qualityCriticWeight = 0.5
	qualityReviewWeight = 0.3
	qualityUserWeight   = 0.2
)

// Value rating bounds.
const (
	maxValue = 10.0
)

// Inputs are the resolved values the formulas read.
type Inputs struct {
	Name           string
	CriticScore    *int
	UserScore      *float64 // 0-10
	Reviews        model.ReviewSentiment
	EstimatedHours float64
}

// InputsFrom extracts formula inputs from an aggregate.
func InputsFrom(m model.GameMetrics) Inputs {
	return Inputs{
		Name:           m.Name,
		CriticScore:    m.CriticScore,
		UserScore:      m.UserScore,
		Reviews:        m.Reviews(),
		EstimatedHours: m.EstimatedHours,
	}
}

// userScore100 returns the user score on a 0-100 scale.
func (in Inputs) userScore100() (float64, bool) {
	if in.UserScore == nil {
		return 0, false
	}
	return *in.UserScore * 10, true
}

// Breakdown shows how a star rating was reached.
type Breakdown struct {
	Critic        *float64 `json:"critic,omitempty"`
	Review        *float64 `json:"review,omitempty"`
	User          *float64 `json:"user,omitempty"`
	Duration      float64  `json:"duration"`
	AppliedWeight float64  `json:"applied_weight"`
	Franchise     bool     `json:"franchise"`
	Rating        float64  `json:"rating"`
}

// StarRating returns the 1-5 star rating rounded to one decimal.
func StarRating(in Inputs) float64 {
	return StarBreakdown(in).Rating
}

// StarBreakdown computes the star rating and the per-factor adjustments.
// Adjustments of the available signal factors are rescaled to the full signal
// weight so that missing factors neither count nor dilute the rest.
func StarBreakdown(in Inputs) Breakdown {
	var (
		b   Breakdown
		adj float64
	)

	if in.CriticScore != nil {
		v := criticStep(float64(*in.CriticScore)) * criticWeight
		b.Critic = &v
		b.AppliedWeight += criticWeight
		adj += v
	}
	if pct, ok := in.Reviews.Percentage(); ok {
		v := reviewStep(pct) * reviewWeight
		b.Review = &v
		b.AppliedWeight += reviewWeight
		adj += v
	}
	if u, ok := in.userScore100(); ok {
		v := userStep(u) * userWeight
		b.User = &v
		b.AppliedWeight += userWeight
		adj += v
	}

	if b.AppliedWeight == 0 {
		b.Franchise = true
		b.Rating = FranchiseDefault(in.Name)
		return b
	}

	rating := neutralStars + adj*signalWeight/b.AppliedWeight
	b.Duration = durationAdjustment(in.EstimatedHours)
	rating += b.Duration

	b.Rating = roundTo(clamp(rating, minStars, maxStars), 1)
	return b
}

func criticStep(score float64) float64 {
	switch {
	case score >= 90:
		return 2
	case score >= 85:
		return 1.5
	case score >= 80:
		return 1
	case score >= 75:
		return 0.5
	case score >= 70:
		return 0
	case score >= 65:
		return -0.5
	case score >= 60:
		return -1
	default:
		return -1.5
	}
}

func reviewStep(pct float64) float64 {
	switch {
	case pct >= 95:
		return 2
	case pct >= 90:
		return 1.5
	case pct >= 80:
		return 1
	case pct >= 70:
		return 0.5
	case pct >= 60:
		return 0
	case pct >= 50:
		return -0.5
	case pct >= 40:
		return -1
	default:
		return -1.5
	}
}

func userStep(score float64) float64 {
	switch {
	case score >= 85:
		return 1
	case score >= 75:
		return 0.5
	case score >= 65:
		return 0
	case score >= 55:
		return -0.5
	default:
		return -1
	}
}

// durationAdjustment is additive and only applies to known lengths.
func durationAdjustment(hours float64) float64 {
	switch {
	case hours <= 0:
		return 0
	case hours < 3:
		return -0.5 * durationWeight
	case hours > 80:
		return -0.3 * durationWeight
	case hours >= 15 && hours <= 50:
		return 0.3 * durationWeight
	default:
		return 0
	}
}

// QualityScore returns the 0-100 composite of the critic, review and user
// signals, rounded to an integer. With no signals it is 50.
func QualityScore(in Inputs) float64 {
	score := qualityBase
	applied := 0.0

	if in.CriticScore != nil {
		score += (float64(*in.CriticScore) - 50) * qualityCriticWeight
		applied += qualityCriticWeight
	}
	if pct, ok := in.Reviews.Percentage(); ok {
		score += (pct - 50) * qualityReviewWeight
		applied += qualityReviewWeight
	}
	if u, ok := in.userScore100(); ok {
		score += (u - 50) * qualityUserWeight
		applied += qualityUserWeight
	}

	if applied > 0 && applied < 1 {
		score = qualityBase + (score-qualityBase)/applied
	}
	return math.Round(clamp(score, 0, 100))
}

// ValueRating returns quality per hour adjusted for length, in [0,10] with two
// decimals. Zero quality or unknown length yields 0.
func ValueRating(quality, hours float64) float64 {
	if quality <= 0 || hours <= 0 {
		return 0
	}
	value := quality / hours
	switch {
	case hours >= 15 && hours <= 40:
		value *= 1.2
	case hours < 5:
		value *= 0.7
	case hours > 80:
		value *= 0.8
	}
	return roundTo(clamp(value, 0, maxValue), 2)
}

// EstimatedHours picks the first positive completion figure, falling back to
// owned playtime rounded to whole hours.
func EstimatedHours(c model.CompletionHours, playtimeMinutes int) (float64, model.HoursSource) {
	switch {
	case c.Main != nil && *c.Main > 0:
		return *c.Main, model.HoursMain
	case c.MainPlusExtra != nil && *c.MainPlusExtra > 0:
		return *c.MainPlusExtra, model.HoursMainPlusExtra
	case c.Completionist != nil && *c.Completionist > 0:
		return *c.Completionist, model.HoursCompletionist
	}
	if playtimeMinutes <= 0 {
		return 0, model.HoursPlaytime
	}
	return math.Round(float64(playtimeMinutes) / 60), model.HoursPlaytime
}

// Apply fills the derived fields of m from its resolved signals.
func Apply(m *model.GameMetrics) {
	in := InputsFrom(*m)
	m.StarRating = StarRating(in)
	m.QualityScore = QualityScore(in)
	m.ValueRating = ValueRating(m.QualityScore, m.EstimatedHours)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
