package model

// Source names one external signal source.
type Source string

// Signal sources consulted per game.
const (
	SourceScores     Source = "scores"
	SourceReviews    Source = "reviews"
	SourceCompletion Source = "completion"
)

// Signal is the outcome of one fetch: either a value or the reason it is missing.
type Signal[T any] struct {
	value  T
	reason string
	ok     bool
}

// Success wraps a fetched value.
func Success[T any](v T) Signal[T] {
	return Signal[T]{value: v, ok: true}
}

// Unavailable records a missing value and why.
func Unavailable[T any](reason string) Signal[T] {
	if reason == "" {
		reason = "unavailable"
	}
	return Signal[T]{reason: reason}
}

// OK reports whether the signal carries a value.
func (s Signal[T]) OK() bool { return s.ok }

// Value returns the value and whether it is present.
func (s Signal[T]) Value() (T, bool) { return s.value, s.ok }

// Reason is empty for successful signals.
func (s Signal[T]) Reason() string { return s.reason }

// OrElse returns the value or def when unavailable.
func (s Signal[T]) OrElse(def T) T {
	if s.ok {
		return s.value
	}
	return def
}

// Scores holds the critic score (0-100) and the user score (0-10).
type Scores struct {
	Critic *int     `json:"critic"`
	User   *float64 `json:"user"`
}

// Empty reports whether neither score was found.
func (s Scores) Empty() bool {
	return s.Critic == nil && s.User == nil
}

// ReviewSentiment counts positive and negative recommendations.
type ReviewSentiment struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Total is the number of reviews.
func (r ReviewSentiment) Total() int {
	return r.Positive + r.Negative
}

// Percentage returns the positive share in [0,100]; ok is false with no reviews.
func (r ReviewSentiment) Percentage() (float64, bool) {
	total := r.Total()
	if total <= 0 {
		return 0, false
	}
	return float64(r.Positive) / float64(total) * 100, true
}

// CompletionHours holds the completion-time estimates in hours.
type CompletionHours struct {
	Main          *float64 `json:"main"`
	MainPlusExtra *float64 `json:"main_plus_extra"`
	Completionist *float64 `json:"completionist"`
}

// Empty reports whether no positive figure is present.
func (c CompletionHours) Empty() bool {
	return !positive(c.Main) && !positive(c.MainPlusExtra) && !positive(c.Completionist)
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}
