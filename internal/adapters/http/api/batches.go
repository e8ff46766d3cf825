package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/steamcompass/compass/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// BatchDependencies defines the synchronous batch operation.
type BatchDependencies interface {
	RunBatch(ctx context.Context, userID string, games []model.GameIdentity, concurrency int, delay time.Duration) (model.BatchResult, error)
}

type gameRequest struct {
	AppID           int64  `json:"appid" validate:"required,gt=0"`
	Name            string `json:"name" validate:"required,max=256"`
	PlaytimeMinutes int    `json:"playtime_minutes" validate:"gte=0"`
}

// batchRequest is the body of POST /batches. A missing delay_ms uses the
// configured pause; zero disables it.
type batchRequest struct {
	UserID      string        `json:"user_id" validate:"omitempty,max=128,excludesall=:"`
	Games       []gameRequest `json:"games" validate:"required,min=1,max=1000,dive"`
	Concurrency int           `json:"concurrency" validate:"gte=0,lte=50"`
	DelayMS     *int          `json:"delay_ms" validate:"omitempty,gte=0,lte=60000"`
}

// BatchHandler handles batch requests.
type BatchHandler struct {
	deps     BatchDependencies
	validate *validator.Validate
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps BatchDependencies, v *validator.Validate) *BatchHandler {
	return &BatchHandler{deps: deps, validate: v}
}

// HandlePostBatch handles POST /batches. The run completes before responding.
func (h *BatchHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	games := make([]model.GameIdentity, len(req.Games))
	for i, g := range req.Games {
		games[i] = model.GameIdentity{
			ExternalID:           g.AppID,
			DisplayName:          g.Name,
			OwnedPlaytimeMinutes: g.PlaytimeMinutes,
		}
	}
	delay := time.Duration(-1)
	if req.DelayMS != nil {
		delay = time.Duration(*req.DelayMS) * time.Millisecond
	}

	res, err := h.deps.RunBatch(r.Context(), req.UserID, games, req.Concurrency, delay)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
