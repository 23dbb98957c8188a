package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"quizzer-backend/internal/models"
	"quizzer-backend/internal/services"
)

type LeaderboardHandler struct {
	*ErrorHandler
	queryService *services.QueryService
}

func NewLeaderboardHandler(errs *ErrorHandler, queryService *services.QueryService) *LeaderboardHandler {
	return &LeaderboardHandler{ErrorHandler: errs, queryService: queryService}
}

func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	grade := strings.TrimSpace(r.URL.Query().Get("grade"))
	subject := strings.TrimSpace(r.URL.Query().Get("subject"))

	entries, err := h.queryService.Leaderboard(r.Context(), grade, subject)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.LeaderboardResponse{
		Message:     fmt.Sprintf("Top %d scores for %s %s", h.queryService.LeaderboardLimit(), grade, subject),
		Leaderboard: entries,
	})
}
