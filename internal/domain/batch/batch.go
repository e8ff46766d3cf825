// Package batch drives the aggregator over a list of games in paced,
// strictly sequential chunks.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/steamcompass/compass/internal/domain/aggregate"
	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/pkg/logger"
	"github.com/steamcompass/compass/pkg/metrics"
)

// Default scheduler configuration constants.
const (
	defaultChunkSize = 5
	defaultDelay     = 2 * time.Second

	reasonCanceled = "batch canceled"
)

// FailurePolicy decides what a failed game contributes to a run.
type FailurePolicy int

const (
	// OmitFailed leaves failed games out of Succeeded.
	OmitFailed FailurePolicy = iota
	// IncludeDegraded adds a record computed from zero signals for failed games.
	IncludeDegraded
)

// Aggregator computes the metrics of one game.
type Aggregator interface {
	Aggregate(ctx context.Context, id model.GameIdentity) model.GameMetrics
}

// Progress is reported after each settled chunk.
type Progress struct {
	RunID  string
	Chunk  int
	Chunks int
	Done   int
	Total  int
	Failed int
}

// Scheduler runs batches.
type Scheduler struct {
	agg          Aggregator
	defaultSize  int
	defaultDelay time.Duration
	policy       FailurePolicy
	progress     func(Progress)
	now          func() time.Time
	newRunID     func() string
	logger       logger.Logger
}

// New creates a Scheduler with configuration options.
func New(agg Aggregator, opts ...Option) *Scheduler {
	s := &Scheduler{
		agg:          agg,
		defaultSize:  defaultChunkSize,
		defaultDelay: defaultDelay,
		policy:       OmitFailed,
		now:          time.Now,
		newRunID:     uuid.NewString,
		logger:       logger.Get().Named("batch"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// outcome is the settled result of one game.
type outcome struct {
	metrics model.GameMetrics
	err     error
}

// RunBatch aggregates games in consecutive chunks of concurrencyPerBatch.
// Games of a chunk run concurrently; a chunk starts only after every game of
// the previous one settled, and delay separates chunks. One game failing
// never aborts the run. A canceled ctx marks the games not yet started as
// failed. Non-positive concurrency and negative delay fall back to the
// scheduler defaults.
func (s *Scheduler) RunBatch(ctx context.Context, games []model.GameIdentity, concurrencyPerBatch int, delay time.Duration) model.BatchResult {
	size := concurrencyPerBatch
	if size < 1 {
		size = s.defaultSize
	}
	if delay < 0 {
		delay = s.defaultDelay
	}

	res := model.BatchResult{
		RunID:     s.newRunID(),
		Total:     len(games),
		Chunks:    (len(games) + size - 1) / size,
		Succeeded: make([]model.GameMetrics, 0, len(games)),
		StartedAt: s.now(),
	}
	log := s.logger.With(logger.String("run_id", res.RunID))
	metrics.RecordBatchRun()
	log.Info(ctx, "batch started",
		logger.Int("games", res.Total),
		logger.Int("chunks", res.Chunks),
		logger.Int("chunk_size", size),
		logger.Duration("delay", delay),
	)

	for chunk := 0; chunk < res.Chunks; chunk++ {
		lo := chunk * size
		if chunk > 0 {
			if err := wait(ctx, delay); err != nil {
				s.cancelRemaining(&res, games[lo:])
				log.Warn(ctx, "batch canceled", logger.Int("chunk", chunk), logger.Error(err))
				break
			}
		}
		hi := min(lo+size, len(games))

		start := time.Now()
		for i, o := range s.runChunk(ctx, games[lo:hi]) {
			if o.err == nil {
				res.Succeeded = append(res.Succeeded, o.metrics)
				if o.metrics.Degraded() {
					res.Degraded++
				}
				continue
			}
			s.fail(&res, games[lo+i], o.err.Error())
		}
		metrics.RecordBatchChunk(float64(time.Since(start).Milliseconds()))

		done := hi
		log.Debug(ctx, "chunk settled",
			logger.Int("chunk", chunk+1),
			logger.Int("done", done),
			logger.Int("failed", res.FailedCount),
		)
		if s.progress != nil {
			s.progress(Progress{
				RunID:  res.RunID,
				Chunk:  chunk + 1,
				Chunks: res.Chunks,
				Done:   done,
				Total:  res.Total,
				Failed: res.FailedCount,
			})
		}
	}

	res.FinishedAt = s.now()
	metrics.RecordBatchGames(metrics.OutcomeSuccess, res.Total-res.FailedCount)
	metrics.RecordBatchGames(metrics.OutcomeFailed, res.FailedCount)
	log.Info(ctx, "batch finished",
		logger.Int("succeeded", res.Total-res.FailedCount),
		logger.Int("failed", res.FailedCount),
		logger.Int("degraded", res.Degraded),
		logger.Duration("took", res.Duration()),
	)
	return res
}

// runChunk aggregates every game of a chunk concurrently and waits for all.
// Results keep the chunk order.
func (s *Scheduler) runChunk(ctx context.Context, games []model.GameIdentity) []outcome {
	out := make([]outcome, len(games))
	var wg sync.WaitGroup
	for i, g := range games {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					out[i] = outcome{err: fmt.Errorf("aggregation panic: %v", r)}
				}
			}()
			out[i] = outcome{metrics: s.agg.Aggregate(ctx, g)}
		}()
	}
	wg.Wait()
	return out
}

// fail records one failed game according to the failure policy.
func (s *Scheduler) fail(res *model.BatchResult, g model.GameIdentity, reason string) {
	res.FailedCount++
	res.Errors = append(res.Errors, fmt.Sprintf("game %d (%s): %s", g.ExternalID, g.DisplayName, reason))
	s.logger.Warn(context.Background(), "game failed",
		logger.String("run_id", res.RunID),
		logger.Int64("appid", g.ExternalID),
		logger.String("reason", reason),
	)
	if s.policy == IncludeDegraded {
		res.Succeeded = append(res.Succeeded, aggregate.Fallback(g, reason, s.now()))
		res.Degraded++
	}
}

func (s *Scheduler) cancelRemaining(res *model.BatchResult, games []model.GameIdentity) {
	for _, g := range games {
		s.fail(res, g, reasonCanceled)
	}
}

// wait pauses for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
