package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/steamcompass/compass/internal/domain/model"
)

// GameDependencies defines the live aggregation operation.
type GameDependencies interface {
	Aggregate(ctx context.Context, id model.GameIdentity) (model.GameMetrics, error)
}

// GamesHandler handles single-game requests.
type GamesHandler struct {
	deps GameDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GameDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// HandleGetMetrics handles GET /games/{appID}/metrics?name=&playtime_minutes=.
func (h *GamesHandler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	appID, err := strconv.ParseInt(chi.URLParam(r, "appID"), 10, 64)
	if err != nil || appID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: appID must be a positive integer", ErrBadRequest))
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing name", ErrBadRequest))
		return
	}
	playtime := 0
	if raw := r.URL.Query().Get("playtime_minutes"); raw != "" {
		playtime, err = strconv.Atoi(raw)
		if err != nil || playtime < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid playtime_minutes", ErrBadRequest))
			return
		}
	}

	m, err := h.deps.Aggregate(r.Context(), model.GameIdentity{
		ExternalID:           appID,
		DisplayName:          name,
		OwnedPlaytimeMinutes: playtime,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
