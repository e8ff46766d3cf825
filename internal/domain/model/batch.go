package model

import "time"

// BatchResult summarizes one scheduler run.
type BatchResult struct {
	RunID       string        `json:"run_id"`
	Total       int           `json:"total"`
	Chunks      int           `json:"chunks"`
	Succeeded   []GameMetrics `json:"succeeded"`
	FailedCount int           `json:"failed_count"`
	Degraded    int           `json:"degraded"`
	Errors      []string      `json:"errors"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r BatchResult) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// JobStatus is the lifecycle state of a library sync.
type JobStatus string

// Sync job states.
const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// SyncJob asks for a user's library to be imported and re-scored.
type SyncJob struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SteamID    string    `json:"steam_id"`
	Status     JobStatus `json:"status"`
	Games      int       `json:"games"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Degraded   int       `json:"degraded"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the job reached a terminal state.
func (j SyncJob) Finished() bool {
	return j.Status == JobDone || j.Status == JobFailed
}
