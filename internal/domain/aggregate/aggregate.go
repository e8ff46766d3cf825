// Package aggregate gathers every signal of one game concurrently and turns
// whatever arrived into a GameMetrics record.
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/resolver"
	"github.com/steamcompass/compass/internal/domain/scoring"
	"github.com/steamcompass/compass/internal/domain/signal"
	"github.com/steamcompass/compass/pkg/logger"
	"github.com/steamcompass/compass/pkg/metrics"
)

// Default aggregator configuration constants.
const (
	defaultFetchTimeout  = 8 * time.Second
	defaultSignalTimeout = 20 * time.Second

	reasonNotConfigured = "source not configured"
)

// Aggregator computes GameMetrics from the configured providers.
type Aggregator struct {
	scores     signal.ScoreProvider
	reviews    signal.ReviewProvider
	completion signal.CompletionProvider

	resolver      *resolver.Resolver
	fetchTimeout  time.Duration
	signalTimeout time.Duration
	now           func() time.Time

	logger logger.Logger
}

// New creates an Aggregator. A nil provider makes its signal always unavailable.
func New(scores signal.ScoreProvider, reviews signal.ReviewProvider, completion signal.CompletionProvider, opts ...Option) *Aggregator {
	a := &Aggregator{
		scores:        scores,
		reviews:       reviews,
		completion:    completion,
		fetchTimeout:  defaultFetchTimeout,
		signalTimeout: defaultSignalTimeout,
		now:           time.Now,
		logger:        logger.Get().Named("aggregator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.resolver == nil {
		a.resolver = resolver.New(resolver.WithAttemptTimeout(a.fetchTimeout))
	}
	return a
}

// Aggregate fetches the three signals of id concurrently and derives the
// ratings from those that arrived. It never fails: missing signals take their
// defaults and are listed in GameMetrics.Unavailable.
func (a *Aggregator) Aggregate(ctx context.Context, id model.GameIdentity) (m model.GameMetrics) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error(ctx, "aggregation panicked",
				logger.Int64("appid", id.ExternalID),
				logger.Any("panic", r),
			)
			m = Fallback(id, fmt.Sprintf("aggregation panic: %v", r), a.now())
		}
	}()

	var (
		wg         sync.WaitGroup
		scores     model.Signal[model.Scores]
		reviews    model.Signal[model.ReviewSentiment]
		completion model.Signal[model.CompletionHours]
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		scores = settle(ctx, a, id, model.SourceScores, a.fetchScores(id))
	}()
	go func() {
		defer wg.Done()
		reviews = settle(ctx, a, id, model.SourceReviews, a.fetchReviews(id))
	}()
	go func() {
		defer wg.Done()
		completion = settle(ctx, a, id, model.SourceCompletion, a.fetchCompletion(id))
	}()
	wg.Wait()

	m = Combine(id, scores, reviews, completion)
	m.ComputedAt = a.now()

	metrics.RecordAggregation(m.Degraded())
	a.logger.Debug(ctx, "game aggregated",
		logger.Int64("appid", id.ExternalID),
		logger.Float64("stars", m.StarRating),
		logger.Float64("quality", m.QualityScore),
		logger.Bool("degraded", m.Degraded()),
	)
	return m
}

// Combine applies defaults for unavailable signals, resolves the hour
// estimate and computes the derived ratings. ComputedAt is left to the caller.
func Combine(
	id model.GameIdentity,
	scores model.Signal[model.Scores],
	reviews model.Signal[model.ReviewSentiment],
	completion model.Signal[model.CompletionHours],
) model.GameMetrics {
	m := model.GameMetrics{
		ExternalID:      id.ExternalID,
		Name:            id.DisplayName,
		PlaytimeMinutes: id.OwnedPlaytimeMinutes,
	}
	unavailable := make(map[model.Source]string)

	if s, ok := scores.Value(); ok {
		m.CriticScore = validCritic(s.Critic)
		m.UserScore = validUser(s.User)
		m.Completeness.CriticScore = m.CriticScore != nil
		m.Completeness.UserScore = m.UserScore != nil
	} else {
		unavailable[model.SourceScores] = scores.Reason()
	}

	if r, ok := reviews.Value(); ok {
		m.ReviewPositive = max(r.Positive, 0)
		m.ReviewNegative = max(r.Negative, 0)
		m.Completeness.Reviews = true
	} else {
		unavailable[model.SourceReviews] = reviews.Reason()
	}

	c, ok := completion.Value()
	if !ok {
		unavailable[model.SourceCompletion] = completion.Reason()
	}
	m.EstimatedHours, m.HoursSource = scoring.EstimatedHours(c, id.OwnedPlaytimeMinutes)
	m.Completeness.CompletionHours = ok && m.HoursSource != model.HoursPlaytime

	if len(unavailable) > 0 {
		m.Unavailable = unavailable
	}
	scoring.Apply(&m)
	return m
}

// Fallback is the record of a game for which no signal could be used.
func Fallback(id model.GameIdentity, reason string, at time.Time) model.GameMetrics {
	m := Combine(id,
		model.Unavailable[model.Scores](reason),
		model.Unavailable[model.ReviewSentiment](reason),
		model.Unavailable[model.CompletionHours](reason),
	)
	m.ComputedAt = at
	return m
}

func (a *Aggregator) fetchScores(id model.GameIdentity) func(context.Context) model.Signal[model.Scores] {
	return func(ctx context.Context) model.Signal[model.Scores] {
		if a.scores == nil {
			return model.Unavailable[model.Scores](reasonNotConfigured)
		}
		return resolver.Resolve(ctx, a.resolver, resolver.Candidates(id.DisplayName),
			func(ctx context.Context, name string) (model.Scores, error) {
				s, err := a.scores.FetchScores(ctx, name)
				if err == nil && s.Empty() {
					err = signal.ErrNoData
				}
				return s, err
			})
	}
}

func (a *Aggregator) fetchReviews(id model.GameIdentity) func(context.Context) model.Signal[model.ReviewSentiment] {
	return func(ctx context.Context) model.Signal[model.ReviewSentiment] {
		if a.reviews == nil {
			return model.Unavailable[model.ReviewSentiment](reasonNotConfigured)
		}
		fctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
		r, err := a.reviews.FetchReviews(fctx, id.ExternalID)
		if err != nil {
			return model.Unavailable[model.ReviewSentiment](err.Error())
		}
		return model.Success(r)
	}
}

func (a *Aggregator) fetchCompletion(id model.GameIdentity) func(context.Context) model.Signal[model.CompletionHours] {
	return func(ctx context.Context) model.Signal[model.CompletionHours] {
		if a.completion == nil {
			return model.Unavailable[model.CompletionHours](reasonNotConfigured)
		}
		return resolver.Resolve(ctx, a.resolver, resolver.Candidates(id.DisplayName),
			func(ctx context.Context, name string) (model.CompletionHours, error) {
				c, err := a.completion.FetchCompletion(ctx, name)
				if err == nil && c.Empty() {
					err = signal.ErrNoData
				}
				return c, err
			})
	}
}

// settle runs fetch under the signal timeout and always returns. A panic or a
// provider that ignores its context yields Unavailable.
func settle[T any](
	ctx context.Context,
	a *Aggregator,
	id model.GameIdentity,
	source model.Source,
	fetch func(context.Context) model.Signal[T],
) model.Signal[T] {
	start := time.Now()
	sctx, cancel := context.WithTimeout(ctx, a.signalTimeout)
	defer cancel()

	out := make(chan model.Signal[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				out <- model.Unavailable[T](fmt.Sprintf("provider panic: %v", r))
			}
		}()
		out <- fetch(sctx)
	}()

	var sig model.Signal[T]
	select {
	case sig = <-out:
	case <-sctx.Done():
		sig = model.Unavailable[T](fmt.Sprintf("timed out: %v", sctx.Err()))
	}

	latency := float64(time.Since(start).Milliseconds())
	if sig.OK() {
		metrics.RecordSignalFetch(string(source), metrics.OutcomeSuccess, latency)
		return sig
	}
	metrics.RecordSignalFetch(string(source), metrics.OutcomeUnavailable, latency)
	a.logger.Warn(ctx, "signal unavailable",
		logger.String("source", string(source)),
		logger.Int64("appid", id.ExternalID),
		logger.String("name", id.DisplayName),
		logger.String("reason", sig.Reason()),
	)
	return sig
}

func validCritic(v *int) *int {
	if v == nil || *v < 0 || *v > 100 {
		return nil
	}
	return v
}

func validUser(v *float64) *float64 {
	if v == nil || *v < 0 || *v > 10 {
		return nil
	}
	return v
}
