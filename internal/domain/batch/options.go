package batch

import "time"

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDefaults sets the chunk size and pause used when a run asks for
// non-positive values.
func WithDefaults(size int, delay time.Duration) Option {
	return func(s *Scheduler) {
		if size > 0 {
			s.defaultSize = size
		}
		if delay >= 0 {
			s.defaultDelay = delay
		}
	}
}

// WithFailurePolicy selects what happens to games whose aggregation failed.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(s *Scheduler) {
		s.policy = p
	}
}

// WithProgress registers a callback invoked after every chunk.
func WithProgress(fn func(Progress)) Option {
	return func(s *Scheduler) {
		s.progress = fn
	}
}

// WithClock replaces the clock used for run timestamps and fallback records.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunID replaces the run id generator.
func WithRunID(fn func() string) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.newRunID = fn
		}
	}
}
