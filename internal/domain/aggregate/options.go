package aggregate

import (
	"time"

	"github.com/steamcompass/compass/internal/domain/resolver"
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithResolver sets the resolver used for name-keyed sources.
func WithResolver(r *resolver.Resolver) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.resolver = r
		}
	}
}

// WithFetchTimeout bounds a single call to the review source.
func WithFetchTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.fetchTimeout = d
		}
	}
}

// WithSignalTimeout bounds everything spent on one signal, resolver attempts
// included.
func WithSignalTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.signalTimeout = d
		}
	}
}

// WithClock replaces the clock used to stamp ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}
