package repository

import "time"

// Option applies a configuration option to the BadgerStore.
type Option func(*BadgerStore)

// WithDir stores data on disk under dir. An empty dir keeps everything in memory.
func WithDir(dir string) Option {
	return func(s *BadgerStore) {
		s.dir = dir
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *BadgerStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithGCInterval sets how often the value log is garbage collected on disk.
func WithGCInterval(interval time.Duration) Option {
	return func(s *BadgerStore) {
		if interval > 0 {
			s.gcInterval = interval
		}
	}
}
