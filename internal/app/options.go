package service

import (
	"time"

	"github.com/steamcompass/compass/internal/domain/batch"
	"github.com/steamcompass/compass/internal/domain/signal"
	"github.com/steamcompass/compass/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithAggregator sets the per-game aggregator.
func WithAggregator(agg Aggregator) Option {
	return func(s *Service) {
		if agg != nil {
			s.aggregator = agg
		}
	}
}

// WithLibrary sets the owned-games source used by library syncs.
func WithLibrary(lib signal.LibraryProvider) Option {
	return func(s *Service) {
		s.library = lib
	}
}

// WithStore sets the metrics and job store. Without one, Start opens a
// Badger store under the data dir.
func WithStore(store Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDataDir sets where Start opens the default store. Empty keeps it in memory.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		s.dataDir = dir
	}
}

// WithWorkerCount sets the number of sync workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending sync jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithBatchDefaults sets the chunk size and pause used when a caller passes
// none, and by library syncs.
func WithBatchDefaults(size int, delay time.Duration) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
		if delay >= 0 {
			s.batchDelay = delay
		}
	}
}

// WithFailurePolicy sets what failed games contribute to batch results.
func WithFailurePolicy(p batch.FailurePolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
