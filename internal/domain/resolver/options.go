package resolver

import "time"

// Option configures a Resolver.
type Option func(*Resolver)

// WithDelay sets the pause between two candidates against the same source.
func WithDelay(d time.Duration) Option {
	return func(r *Resolver) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithAttemptTimeout bounds each single candidate fetch.
func WithAttemptTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.attemptTimeout = d
		}
	}
}
