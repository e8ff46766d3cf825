package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/steamcompass/compass/pkg/logger"
)

// HTTPServer is the part of *http.Server the service needs.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs an HTTP server as a supervised service.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve listens until ctx is canceled, then shuts the server down.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPServerService) String() string { return "http-server" }

// Refresher queues library syncs for a user set.
type Refresher interface {
	Refresh(ctx context.Context, users map[string]string) int
}

// RefreshService periodically re-syncs configured users. A zero interval or
// an empty user set disables it.
type RefreshService struct {
	refresher Refresher
	users     map[string]string
	interval  time.Duration
	logger    logger.Logger
}

// NewRefreshService creates a refresh loop.
func NewRefreshService(refresher Refresher, users map[string]string, interval time.Duration) *RefreshService {
	return &RefreshService{
		refresher: refresher,
		users:     users,
		interval:  interval,
		logger:    logger.Get().Named("refresher"),
	}
}

// Serve refreshes on every tick until ctx is canceled.
func (r *RefreshService) Serve(ctx context.Context) error {
	if r.interval <= 0 || len(r.users) == 0 {
		r.logger.Info(ctx, "periodic refresh disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Info(ctx, "periodic refresh started",
		logger.Duration("interval", r.interval),
		logger.Int("users", len(r.users)),
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n := r.refresher.Refresh(ctx, r.users)
			r.logger.Info(ctx, "refresh queued", logger.Int("jobs", n))
		}
	}
}

func (r *RefreshService) String() string { return "refresher" }
