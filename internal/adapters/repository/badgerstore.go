package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/pkg/logger"
	"github.com/steamcompass/compass/pkg/metrics"
)

// Key layout.
const (
	metricsKeyPrefix = "metrics:"
	jobKeyPrefix     = "job:"

	gcDiscardRatio = 0.5
)

// BadgerStore implements Store and JobStore on BadgerDB.
type BadgerStore struct {
	db    *badger.DB
	dir   string
	count atomic.Int64

	metricsUpdateInterval time.Duration
	gcInterval            time.Duration

	closed   atomic.Bool
	wg       sync.WaitGroup
	stopChan chan struct{}
	logger   logger.Logger
}

var (
	_ Store    = (*BadgerStore)(nil)
	_ JobStore = (*BadgerStore)(nil)
)

// NewBadgerStore opens the store and starts its background maintenance.
func NewBadgerStore(ctx context.Context, opts ...Option) (*BadgerStore, error) {
	s := &BadgerStore{
		metricsUpdateInterval: 5 * time.Second,
		gcInterval:            10 * time.Minute,
		stopChan:              make(chan struct{}),
		logger:                logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}

	bopts := badger.DefaultOptions(s.dir).WithLogger(nil)
	if s.dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	s.db = db

	n, err := s.countPrefix([]byte(metricsKeyPrefix))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("count records: %w", err)
	}
	s.count.Store(int64(n))
	metrics.UpdateStoredGames(n)

	s.startMetricsUpdater(ctx)
	if s.dir != "" {
		s.startValueLogGC(ctx)
	}
	s.logger.Info(ctx, "store opened",
		logger.String("dir", s.dir),
		logger.Bool("in_memory", s.dir == ""),
		logger.Int("records", n),
	)
	return s, nil
}

// Close stops background work and closes the database.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stopChan)
	s.wg.Wait()
	return s.db.Close()
}

// Upsert implements Store.Upsert.
func (s *BadgerStore) Upsert(ctx context.Context, userID string, m model.GameMetrics) error {
	start := time.Now()
	defer recordLatency("upsert", start)

	if err := s.check(ctx, userID); err != nil {
		return err
	}
	if m.ExternalID <= 0 {
		return ErrInvalidGame
	}
	data, err := json.Marshal(m)
	if err != nil {
		metrics.RecordStoreError("upsert")
		return fmt.Errorf("marshal metrics: %w", err)
	}

	key := metricsKey(userID, m.ExternalID)
	var created bool
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			created = true
		case err != nil:
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		metrics.RecordStoreError("upsert")
		return fmt.Errorf("upsert %s/%d: %w", userID, m.ExternalID, err)
	}
	if created {
		s.count.Add(1)
	}
	return nil
}

// Get implements Store.Get.
func (s *BadgerStore) Get(ctx context.Context, userID string, appID int64) (model.GameMetrics, error) {
	start := time.Now()
	defer recordLatency("get", start)

	if err := s.check(ctx, userID); err != nil {
		return model.GameMetrics{}, err
	}
	var m model.GameMetrics
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metricsKey(userID, appID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			metrics.RecordStoreError("get")
		}
		return model.GameMetrics{}, err
	}
	return m, nil
}

// ListByUser implements Store.ListByUser.
func (s *BadgerStore) ListByUser(ctx context.Context, userID string) ([]model.GameMetrics, error) {
	start := time.Now()
	defer recordLatency("list", start)

	if err := s.check(ctx, userID); err != nil {
		return nil, err
	}
	out := []model.GameMetrics{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(metricsKeyPrefix + userID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m model.GameMetrics
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return err
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		metrics.RecordStoreError("list")
		return nil, fmt.Errorf("list %s: %w", userID, err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StarRating != out[j].StarRating {
			return out[i].StarRating > out[j].StarRating
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out, nil
}

// Count implements Store.Count.
func (s *BadgerStore) Count(_ context.Context) int {
	return int(s.count.Load())
}

// SaveJob implements JobStore.SaveJob.
func (s *BadgerStore) SaveJob(ctx context.Context, job model.SyncJob) error {
	start := time.Now()
	defer recordLatency("save_job", start)

	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(jobKeyPrefix+job.ID), data)
	}); err != nil {
		metrics.RecordStoreError("save_job")
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// Job implements JobStore.Job.
func (s *BadgerStore) Job(ctx context.Context, id string) (model.SyncJob, error) {
	if s.closed.Load() {
		return model.SyncJob{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return model.SyncJob{}, err
	}
	var job model.SyncJob
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(jobKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &job)
		})
	})
	if err != nil {
		return model.SyncJob{}, err
	}
	return job, nil
}

func (s *BadgerStore) check(ctx context.Context, userID string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID == "" || strings.Contains(userID, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidUser, userID)
	}
	return nil
}

func (s *BadgerStore) countPrefix(prefix []byte) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// startMetricsUpdater publishes the record count periodically.
func (s *BadgerStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoredGames(s.Count(ctx))
			}
		}
	}()
}

// startValueLogGC reclaims value log space until a cycle finds nothing to do.
func (s *BadgerStore) startValueLogGC(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.gcInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				for s.db.RunValueLogGC(gcDiscardRatio) == nil {
				}
			}
		}
	}()
}

// metricsKey zero-pads the id so prefix scans return games in id order.
func metricsKey(userID string, appID int64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", metricsKeyPrefix, userID, appID))
}

func recordLatency(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Milliseconds()))
}
