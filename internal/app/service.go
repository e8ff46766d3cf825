// Package service composes the aggregation engine, the sync queue and the
// store into the operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/steamcompass/compass/internal/adapters/mq/queue"
	"github.com/steamcompass/compass/internal/adapters/mq/worker"
	"github.com/steamcompass/compass/internal/adapters/repository"
	"github.com/steamcompass/compass/internal/domain/batch"
	"github.com/steamcompass/compass/internal/domain/dedupe"
	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/scoring"
	"github.com/steamcompass/compass/internal/domain/signal"
	"github.com/steamcompass/compass/internal/domain/types"
	"github.com/steamcompass/compass/pkg/logger"
	"github.com/steamcompass/compass/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultWorkerCount = 2
	defaultQueueSize   = 64
	defaultBatchSize   = 5
	defaultBatchDelay  = 2 * time.Second
	stopTimeout        = 30 * time.Second
)

// reasonShutdown is the error recorded on sync jobs the service stopped
// before running.
const reasonShutdown = "shutdown"

// Aggregator computes the metrics of one game.
type Aggregator = batch.Aggregator

// Store persists metrics and sync jobs.
type Store interface {
	repository.Store
	repository.JobStore
}

// Service implements the API dependencies for the metrics engine.
type Service struct {
	// lifecycle serializes Start and Stop; mu guards the fields below.
	lifecycle sync.Mutex
	mu        sync.RWMutex
	inflight  sync.WaitGroup

	aggregator Aggregator
	library    signal.LibraryProvider
	store      Store
	scheduler  *batch.Scheduler
	guard      dedupe.Deduper
	jobQueue   queue.Queue
	workerPool *worker.Pool

	workerCount int
	queueSize   int
	batchSize   int
	batchDelay  time.Duration
	policy      batch.FailurePolicy
	dataDir     string
	ownsStore   bool

	started   bool
	startedAt time.Time
	now       func() time.Time
	logger    logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		batchSize:   defaultBatchSize,
		batchDelay:  defaultBatchDelay,
		policy:      batch.OmitFailed,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// session is what one call works with, captured while the service runs.
type session struct {
	store     Store
	scheduler *batch.Scheduler
	guard     dedupe.Deduper
	jobs      queue.Queue
}

// acquire captures the running dependencies and registers the call with
// Stop, which waits for it before closing the store. Callers must call
// s.inflight.Done when err is nil.
func (s *Service) acquire() (session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return session{}, ErrNotStarted
	}
	s.inflight.Add(1)
	return session{store: s.store, scheduler: s.scheduler, guard: s.guard, jobs: s.jobQueue}, nil
}

// Start initializes the store, the sync queue and the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.aggregator == nil {
		return fmt.Errorf("%w: aggregator is required", ErrInvalidInput)
	}

	s.logger.Info(ctx, "starting metrics service...")

	if s.store == nil {
		store, err := repository.NewBadgerStore(ctx, repository.WithDir(s.dataDir))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}

	s.scheduler = batch.New(s.aggregator,
		batch.WithDefaults(s.batchSize, s.batchDelay),
		batch.WithFailurePolicy(s.policy),
		batch.WithClock(s.now),
	)
	s.guard = dedupe.NewInMemoryDeduper()
	s.jobQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = worker.NewPool(s.workerCount, s.jobQueue, worker.ProcessorFunc(s.ProcessSync))
	s.workerPool.Start(ctx)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "metrics service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("batchSize", s.batchSize),
		logger.Duration("batchDelay", s.batchDelay),
	)
	return nil
}

// Stop rejects new calls, drains the workers, fails the sync jobs left in
// the queue and waits for running calls before closing the store it opened.
func (s *Service) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool, jobs, guard, store, owns := s.workerPool, s.jobQueue, s.guard, s.store, s.ownsStore
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping metrics service...")
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	left := jobs.Drain(ctx)
	for i := range left {
		guard.Unrecord(ctx, left[i].UserID)
		s.finish(ctx, store, left[i], model.JobFailed, errors.New(reasonShutdown))
	}
	if len(left) > 0 {
		s.logger.Warn(ctx, "pending syncs failed on shutdown", logger.Int("jobs", len(left)))
	}

	running := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(running)
	}()
	select {
	case <-running:
	case <-ctx.Done():
		s.logger.Warn(ctx, "calls still running at shutdown", logger.Error(ctx.Err()))
	}

	if owns {
		if closer, ok := store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.logger.Error(ctx, "closing store", logger.Error(err))
			}
		}
		s.mu.Lock()
		s.store = nil
		s.ownsStore = false
		s.mu.Unlock()
	}
	s.logger.Info(ctx, "metrics service stopped")
}

// Serve starts the service, blocks until ctx ends, then stops it.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

// Ready reports whether the service accepts work.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Aggregate computes the metrics of one game without storing them.
func (s *Service) Aggregate(ctx context.Context, id model.GameIdentity) (model.GameMetrics, error) {
	if id.ExternalID <= 0 {
		return model.GameMetrics{}, fmt.Errorf("%w: appid must be positive", ErrInvalidInput)
	}
	if _, err := s.acquire(); err != nil {
		return model.GameMetrics{}, err
	}
	defer s.inflight.Done()
	return s.aggregator.Aggregate(ctx, id), nil
}

// RunBatch aggregates games in paced chunks. With a user id, every computed
// record is stored; store failures are logged and not retried.
func (s *Service) RunBatch(ctx context.Context, userID string, games []model.GameIdentity, concurrency int, delay time.Duration) (model.BatchResult, error) {
	sess, err := s.acquire()
	if err != nil {
		return model.BatchResult{}, err
	}
	defer s.inflight.Done()

	res := sess.scheduler.RunBatch(ctx, games, concurrency, delay)
	if userID != "" {
		s.persist(ctx, sess.store, userID, res.Succeeded)
	}
	return res, nil
}

func (s *Service) persist(ctx context.Context, store Store, userID string, games []model.GameMetrics) {
	stored := 0
	for _, m := range games {
		if err := store.Upsert(ctx, userID, m); err != nil {
			metrics.RecordErrorByComponent("service", "store_upsert")
			s.logger.Error(ctx, "storing metrics failed",
				logger.String("user_id", userID),
				logger.Int64("appid", m.ExternalID),
				logger.Error(err),
			)
			continue
		}
		stored++
	}
	s.logger.Debug(ctx, "metrics stored",
		logger.String("user_id", userID),
		logger.Int("stored", stored),
		logger.Int("total", len(games)),
	)
}

// Sync enqueues a library sync for a user. Only one sync per user may be
// queued or running.
func (s *Service) Sync(ctx context.Context, userID, steamID string) (model.SyncJob, error) {
	if userID == "" || steamID == "" {
		return model.SyncJob{}, fmt.Errorf("%w: user id and steam id are required", ErrInvalidInput)
	}
	sess, err := s.acquire()
	if err != nil {
		return model.SyncJob{}, err
	}
	defer s.inflight.Done()

	if s.library == nil {
		return model.SyncJob{}, ErrNoLibrary
	}

	if sess.guard.SeenAndRecord(ctx, userID) {
		return model.SyncJob{}, ErrSyncInProgress
	}

	job := model.SyncJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		SteamID:   steamID,
		Status:    model.JobQueued,
		CreatedAt: s.now(),
	}
	if err := sess.store.SaveJob(ctx, job); err != nil {
		sess.guard.Unrecord(ctx, userID)
		return model.SyncJob{}, fmt.Errorf("save job: %w", err)
	}
	if err := sess.jobs.Enqueue(ctx, job); err != nil {
		sess.guard.Unrecord(ctx, userID)
		job = s.finish(ctx, sess.store, job, model.JobFailed, err)
		if errors.Is(err, queue.ErrFull) {
			return job, ErrQueueFull
		}
		return job, fmt.Errorf("enqueue sync: %w", err)
	}

	metrics.RecordSyncJob(string(model.JobQueued))
	s.logger.Info(ctx, "sync queued",
		logger.String("job_id", job.ID),
		logger.String("user_id", userID),
	)
	return job, nil
}

// ProcessSync runs one queued sync: import the library, aggregate it in
// paced chunks and store the results. A job picked up while the service
// stops is failed instead.
func (s *Service) ProcessSync(ctx context.Context, job model.SyncJob) error {
	sess, err := s.acquire()
	if err != nil {
		s.mu.RLock()
		store, guard := s.store, s.guard
		s.mu.RUnlock()
		if guard != nil {
			guard.Unrecord(ctx, job.UserID)
		}
		if store != nil {
			s.finish(ctx, store, job, model.JobFailed, errors.New(reasonShutdown))
		}
		return err
	}
	defer s.inflight.Done()
	defer sess.guard.Unrecord(ctx, job.UserID)

	job.Status = model.JobRunning
	if err := sess.store.SaveJob(ctx, job); err != nil {
		s.logger.Warn(ctx, "saving job state failed", logger.String("job_id", job.ID), logger.Error(err))
	}
	metrics.RecordSyncJob(string(model.JobRunning))

	games, err := s.library.OwnedGames(ctx, job.SteamID)
	if err != nil {
		s.finish(ctx, sess.store, job, model.JobFailed, err)
		return fmt.Errorf("import library: %w", err)
	}

	res := sess.scheduler.RunBatch(ctx, games, 0, -1)
	s.persist(ctx, sess.store, job.UserID, res.Succeeded)

	job.Games = res.Total
	job.Succeeded = res.Total - res.FailedCount
	job.Failed = res.FailedCount
	job.Degraded = res.Degraded
	s.finish(ctx, sess.store, job, model.JobDone, nil)
	return nil
}

func (s *Service) finish(ctx context.Context, store Store, job model.SyncJob, status model.JobStatus, cause error) model.SyncJob {
	job.Status = status
	job.FinishedAt = s.now()
	if cause != nil {
		job.Error = cause.Error()
	}
	if err := store.SaveJob(context.WithoutCancel(ctx), job); err != nil {
		s.logger.Warn(ctx, "saving job state failed", logger.String("job_id", job.ID), logger.Error(err))
	}
	metrics.RecordSyncJob(string(status))
	s.logger.Info(ctx, "sync finished",
		logger.String("job_id", job.ID),
		logger.String("status", string(status)),
		logger.Int("games", job.Games),
		logger.Int("failed", job.Failed),
	)
	return job
}

// Job returns the state of a sync job.
func (s *Service) Job(ctx context.Context, id string) (model.SyncJob, error) {
	sess, err := s.acquire()
	if err != nil {
		return model.SyncJob{}, err
	}
	defer s.inflight.Done()

	job, err := sess.store.Job(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.SyncJob{}, ErrJobNotFound
	}
	return job, err
}

// Refresh queues a sync for every user, skipping users with one in flight.
// It returns the number of queued jobs.
func (s *Service) Refresh(ctx context.Context, users map[string]string) int {
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	queued := 0
	for _, id := range ids {
		_, err := s.Sync(ctx, id, users[id])
		switch {
		case err == nil:
			queued++
		case errors.Is(err, ErrSyncInProgress):
			s.logger.Debug(ctx, "refresh skipped, sync in progress", logger.String("user_id", id))
		default:
			s.logger.Warn(ctx, "refresh failed", logger.String("user_id", id), logger.Error(err))
		}
	}
	return queued
}

// Games returns a user's stored metrics ordered by star rating desc.
func (s *Service) Games(ctx context.Context, userID string) ([]model.GameMetrics, error) {
	sess, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer s.inflight.Done()
	return sess.store.ListByUser(ctx, userID)
}

// UserStats summarizes a user's stored collection.
func (s *Service) UserStats(ctx context.Context, userID string) (types.CollectionStats, error) {
	games, err := s.Games(ctx, userID)
	if err != nil {
		return types.CollectionStats{}, err
	}
	return scoring.Summarize(games), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"batchSize":   s.batchSize,
		"batchDelay":  s.batchDelay.String(),
	}
	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		stored := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedGames"] = stored
		stats["syncsInFlight"] = s.guard.Size()
		stats["uptime"] = s.now().Sub(s.startedAt).Round(time.Second).String()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoredGames(stored)
	}
	return stats
}

func (s *Service) String() string { return "metrics-service" }
