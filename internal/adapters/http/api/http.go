// Package api serves the JSON HTTP API of the metrics engine.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/steamcompass/compass/internal/adapters/repository"
	service "github.com/steamcompass/compass/internal/app"
	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/types"
	"github.com/steamcompass/compass/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service.
type Dependencies interface {
	Ready() bool
	Aggregate(ctx context.Context, id model.GameIdentity) (model.GameMetrics, error)
	RunBatch(ctx context.Context, userID string, games []model.GameIdentity, concurrency int, delay time.Duration) (model.BatchResult, error)
	Sync(ctx context.Context, userID, steamID string) (model.SyncJob, error)
	Job(ctx context.Context, id string) (model.SyncJob, error)
	Games(ctx context.Context, userID string) ([]model.GameMetrics, error)
	UserStats(ctx context.Context, userID string) (types.CollectionStats, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	gamesHandler  *GamesHandler
	batchHandler  *BatchHandler
	syncHandler   *SyncHandler
	usersHandler  *UsersHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &Server{
		healthHandler: NewHealthHandler(deps),
		statsHandler:  NewStatsHandler(statsProvider),
		gamesHandler:  NewGamesHandler(deps),
		batchHandler:  NewBatchHandler(deps, v),
		syncHandler:   NewSyncHandler(deps, v),
		usersHandler:  NewUsersHandler(deps),
	}
}

// Router builds the chi router with every route registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger.Get().Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", s.healthHandler.MetricsHandler())
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Get("/games/{appID}/metrics", s.gamesHandler.HandleGetMetrics)
	r.Post("/batches", s.batchHandler.HandlePostBatch)
	r.Get("/jobs/{jobID}", s.syncHandler.HandleGetJob)
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Post("/sync", s.syncHandler.HandlePostSync)
		r.Get("/games", s.usersHandler.HandleGetGames)
		r.Get("/stats", s.usersHandler.HandleGetStats)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service sentinels to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrSyncInProgress):
		writeError(w, http.StatusConflict, "sync_in_progress", err)
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrNoLibrary):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeJSON reads a bounded JSON body and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := v.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// writeStoreError maps store validation errors to 400 and the rest like
// writeServiceError.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrInvalidUser) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeServiceError(w, err)
}
