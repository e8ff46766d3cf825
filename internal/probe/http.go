package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/types"
)

// Client talks to a running compass server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client. A nil hc uses a client with DefaultTimeout.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Health returns the readiness reported by /healthz.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var h healthResponse
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, &h); err != nil {
		return false, err
	}
	return h.Ready, nil
}

// SubmitBatch posts games to /batches and returns the finished run.
func (c *Client) SubmitBatch(ctx context.Context, req BatchRequest) (model.BatchResult, error) {
	var res model.BatchResult
	err := c.do(ctx, http.MethodPost, "/batches", req, http.StatusOK, &res)
	return res, err
}

// StartSync enqueues a library sync for userID.
func (c *Client) StartSync(ctx context.Context, userID, steamID string) (model.SyncJob, error) {
	var job model.SyncJob
	err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/sync",
		syncRequest{SteamID: steamID}, http.StatusAccepted, &job)
	return job, err
}

// Job fetches the current state of a sync job.
func (c *Client) Job(ctx context.Context, id string) (model.SyncJob, error) {
	var job model.SyncJob
	err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, http.StatusOK, &job)
	return job, err
}

// UserStats fetches the collection summary of userID.
func (c *Client) UserStats(ctx context.Context, userID string) (types.CollectionStats, error) {
	var stats types.CollectionStats
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/stats", nil, http.StatusOK, &stats)
	return stats, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, dst any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode != want {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return fmt.Errorf("%w: %s %s: %d %s: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, e.Code, e.Message)
		}
		return fmt.Errorf("%w: %s %s: %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}
