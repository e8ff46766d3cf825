package probe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/pkg/logger"
)

// Run executes one probe: an optional batch, an optional library sync, then
// the user's collection stats.
func Run(ctx context.Context, config *Config) (*Report, error) {
	if config.GamesFile == "" && config.SteamID == "" {
		return nil, ErrNothingToDo
	}
	applyDefaults(config)

	log := logger.Get().Named("probe")
	report := &Report{StartTime: time.Now()}
	client := NewClient(config.BaseURL, &http.Client{Timeout: config.Timeout})

	log.Info(ctx, "starting compass probe",
		logger.String("baseURL", config.BaseURL),
		logger.String("userID", config.UserID),
		logger.String("gamesFile", config.GamesFile),
		logger.Bool("sync", config.SteamID != ""),
		logger.Duration("timeout", config.Timeout))

	// Step 1: Check service health
	ready, err := client.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	if !ready {
		return nil, ErrUnhealthy
	}

	// Step 2: Submit a batch
	if config.GamesFile != "" {
		games, err := LoadGames(config.GamesFile)
		if err != nil {
			return nil, err
		}
		req := BatchRequest{UserID: config.UserID, Games: games, Concurrency: config.Concurrency}
		if config.DelayMS >= 0 {
			delay := config.DelayMS
			req.DelayMS = &delay
		}
		log.Info(ctx, "submitting batch", logger.Int("games", len(games)))
		res, err := client.SubmitBatch(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("batch submission failed: %w", err)
		}
		report.Batch = &res
		log.Info(ctx, "batch finished",
			logger.String("runID", res.RunID),
			logger.Int("succeeded", len(res.Succeeded)),
			logger.Int("failed", res.FailedCount),
			logger.Int("degraded", res.Degraded))
	}

	// Step 3: Sync the library and wait for the job
	if config.SteamID != "" {
		job, err := client.StartSync(ctx, config.UserID, config.SteamID)
		if err != nil {
			return nil, fmt.Errorf("sync request failed: %w", err)
		}
		log.Info(ctx, "sync job accepted", logger.String("jobID", job.ID))
		job, err = waitForJob(ctx, client, job, config.PollInterval)
		report.Job = &job
		if err != nil {
			return report, err
		}
	}

	// Step 4: Collection stats
	if config.UserID != "" {
		stats, err := client.UserStats(ctx, config.UserID)
		if err != nil {
			return report, fmt.Errorf("stats retrieval failed: %w", err)
		}
		report.Stats = &stats
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	return report, nil
}

// waitForJob polls until the job is done or failed.
func waitForJob(ctx context.Context, client *Client, job model.SyncJob, interval time.Duration) (model.SyncJob, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := logger.Get().Named("probe")
	for !job.Finished() {
		select {
		case <-ctx.Done():
			return job, fmt.Errorf("waiting for job %s: %w", job.ID, ctx.Err())
		case <-ticker.C:
		}
		next, err := client.Job(ctx, job.ID)
		if err != nil {
			return job, fmt.Errorf("job status failed: %w", err)
		}
		if next.Status != job.Status {
			log.Debug(ctx, "job status changed", logger.String("jobID", job.ID), logger.String("status", string(next.Status)))
		}
		job = next
	}
	if job.Status == model.JobFailed {
		return job, fmt.Errorf("%w: %s", ErrJobFailed, job.Error)
	}
	return job, nil
}

// LoadGames reads a JSON array of games from path.
func LoadGames(path string) ([]model.GameIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read games file: %w", err)
	}
	var games []model.GameIdentity
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("failed to parse games file: %w", err)
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("games file %s is empty", path)
	}
	return games, nil
}

func applyDefaults(config *Config) {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Top <= 0 {
		config.Top = DefaultTop
	}
}
