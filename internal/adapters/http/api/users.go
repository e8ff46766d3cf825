package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/types"
)

// UserDependencies defines reads over stored metrics.
type UserDependencies interface {
	Games(ctx context.Context, userID string) ([]model.GameMetrics, error)
	UserStats(ctx context.Context, userID string) (types.CollectionStats, error)
}

// UsersHandler handles per-user reads.
type UsersHandler struct {
	deps UserDependencies
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UserDependencies) *UsersHandler {
	return &UsersHandler{deps: deps}
}

type gamesResponse struct {
	UserID string              `json:"user_id"`
	Count  int                 `json:"count"`
	Games  []model.GameMetrics `json:"games"`
}

// HandleGetGames handles GET /users/{userID}/games.
func (h *UsersHandler) HandleGetGames(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	games, err := h.deps.Games(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gamesResponse{UserID: userID, Count: len(games), Games: games})
}

// HandleGetStats handles GET /users/{userID}/stats.
func (h *UsersHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.UserStats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
