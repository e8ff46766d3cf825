// Package repository persists aggregated game metrics and sync jobs.
package repository

import (
	"context"

	"github.com/steamcompass/compass/internal/domain/model"
)

// Store provides read/write access to metrics keyed by (user, game).
type Store interface {
	// Upsert replaces the stored metrics of one game for a user.
	Upsert(ctx context.Context, userID string, m model.GameMetrics) error

	// Get returns the stored metrics of one game.
	// Returns ErrNotFound if nothing was stored.
	Get(ctx context.Context, userID string, appID int64) (model.GameMetrics, error)

	// ListByUser returns every stored game of a user ordered by star rating
	// desc, then by id.
	ListByUser(ctx context.Context, userID string) ([]model.GameMetrics, error)

	// Count returns the number of stored (user, game) records.
	Count(ctx context.Context) int
}

// JobStore keeps sync job state.
type JobStore interface {
	SaveJob(ctx context.Context, job model.SyncJob) error
	// Job returns ErrNotFound for unknown ids.
	Job(ctx context.Context, id string) (model.SyncJob, error)
}
