package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/steamcompass/compass/internal/domain/model"
)

// SyncDependencies defines the library sync operations.
type SyncDependencies interface {
	Sync(ctx context.Context, userID, steamID string) (model.SyncJob, error)
	Job(ctx context.Context, id string) (model.SyncJob, error)
}

type syncRequest struct {
	SteamID string `json:"steam_id" validate:"required,numeric,max=20"`
}

// SyncHandler handles sync job requests.
type SyncHandler struct {
	deps     SyncDependencies
	validate *validator.Validate
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps SyncDependencies, v *validator.Validate) *SyncHandler {
	return &SyncHandler{deps: deps, validate: v}
}

// HandlePostSync handles POST /users/{userID}/sync.
func (h *SyncHandler) HandlePostSync(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if strings.TrimSpace(userID) == "" || strings.Contains(userID, ":") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	var req syncRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	job, err := h.deps.Sync(r.Context(), userID, req.SteamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

// HandleGetJob handles GET /jobs/{jobID}.
func (h *SyncHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Job(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
