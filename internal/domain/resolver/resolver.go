// Package resolver tries a list of name candidates against a name-keyed
// source and keeps the first hit.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/pkg/logger"
	"github.com/steamcompass/compass/pkg/metrics"
)

// Default resolver configuration constants.
const (
	defaultDelay          = 500 * time.Millisecond
	defaultAttemptTimeout = 8 * time.Second
)

// ReasonNoCandidates is reported when a name yields nothing searchable.
const ReasonNoCandidates = "no searchable name"

// Resolver holds the pacing used between candidates.
type Resolver struct {
	delay          time.Duration
	attemptTimeout time.Duration
	logger         logger.Logger
}

// New creates a Resolver with configuration options.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		delay:          defaultDelay,
		attemptTimeout: defaultAttemptTimeout,
		logger:         logger.Get().Named("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Delay returns the pause between two candidates.
func (r *Resolver) Delay() time.Duration { return r.delay }

// AttemptTimeout returns the bound on one candidate fetch.
func (r *Resolver) AttemptTimeout() time.Duration { return r.attemptTimeout }

// Resolve calls fetch for each candidate in order and returns the first
// success. It makes no call after a success and returns Unavailable once the
// list is exhausted or ctx is done.
func Resolve[T any](ctx context.Context, r *Resolver, candidates []string, fetch func(ctx context.Context, candidate string) (T, error)) model.Signal[T] {
	if len(candidates) == 0 {
		return model.Unavailable[T](ReasonNoCandidates)
	}

	var lastErr error
	for i, candidate := range candidates {
		if i > 0 {
			if err := r.pause(ctx); err != nil {
				return model.Unavailable[T](fmt.Sprintf("canceled after %d candidates: %v", i, err))
			}
		}

		v, err := attempt(ctx, r, candidate, fetch)
		if err == nil {
			metrics.RecordResolverAttempt(metrics.OutcomeHit)
			return model.Success(v)
		}
		metrics.RecordResolverAttempt(metrics.OutcomeMiss)
		r.logger.Debug(ctx, "candidate missed",
			logger.String("candidate", candidate),
			logger.Error(err),
		)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return model.Unavailable[T](fmt.Sprintf("%d candidates exhausted: %v", len(candidates), lastErr))
}

// attempt runs one fetch under the per-attempt timeout.
func attempt[T any](ctx context.Context, r *Resolver, candidate string, fetch func(context.Context, string) (T, error)) (T, error) {
	actx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
	defer cancel()
	return fetch(actx, candidate)
}

// pause waits the politeness delay unless ctx ends first.
func (r *Resolver) pause(ctx context.Context) error {
	if r.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

