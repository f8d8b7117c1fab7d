package handler

import (
	"log/slog"
	"net/http"

	"github.com/campusboard/showcase/internal/auth"
	"github.com/campusboard/showcase/internal/service"
)

// BoardHandler serves the contribution-engine read endpoints: the per-user
// stats panel and the public leaderboards.
type BoardHandler struct {
	contributions *service.ContributionService
	logger        *slog.Logger
}

// NewBoardHandler creates a BoardHandler.
func NewBoardHandler(contributions *service.ContributionService, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{contributions: contributions, logger: logger}
}

// HandleUserStats returns the signed-in user's streak points and current
// period counts.
//
// HTTP: GET /api/user/stats
func (h *BoardHandler) HandleUserStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	stats, err := h.contributions.UserStats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleLeaderboard returns one of the three ranked leaderboards.
//
// HTTP: GET /api/leaderboard?type=posts|upvotes|comments (public)
func (h *BoardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")

	entries, err := h.contributions.Leaderboard(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
