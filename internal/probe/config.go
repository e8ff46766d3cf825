package probe

import (
	"time"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/types"
)

// Config holds the probe parameters.
type Config struct {
	BaseURL      string        // Base URL of the service
	UserID       string        // Library owner the results are stored under
	SteamID      string        // Steam account to sync, empty skips the sync
	GamesFile    string        // JSON array of games to submit as a batch
	Concurrency  int           // Batch chunk size, zero uses the server default
	DelayMS      int           // Pause between chunks, negative uses the server default
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Pause between job status checks
	Top          int           // Number of games printed in the summary
	LogFile      string        // Log file for probe output
	Verbose      bool          // Print every game of a batch
}

// Report is what one probe run observed.
type Report struct {
	Batch     *model.BatchResult     `json:"batch,omitempty"`
	Job       *model.SyncJob         `json:"job,omitempty"`
	Stats     *types.CollectionStats `json:"stats,omitempty"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time"`
	Duration  time.Duration          `json:"duration"`
}

// BatchRequest is the body of POST /batches.
type BatchRequest struct {
	UserID      string               `json:"user_id,omitempty"`
	Games       []model.GameIdentity `json:"games"`
	Concurrency int                  `json:"concurrency,omitempty"`
	DelayMS     *int                 `json:"delay_ms,omitempty"`
}

type syncRequest struct {
	SteamID string `json:"steam_id"`
}

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
