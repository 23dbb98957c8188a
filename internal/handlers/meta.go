package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

type MetaHandler struct {
	checks map[string]Pinger
}

func NewMetaHandler(checks map[string]Pinger) *MetaHandler {
	return &MetaHandler{checks: checks}
}

// Health pings every dependency and answers 503 if any of them fails.
func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{"status": overall, "dependencies": deps})
}

var routeIndex = []string{
	"POST /api/auth/login",
	"GET /api/leaderboard?grade=...&subject=...",
	"POST /api/quiz/generate",
	"POST /api/quiz/submit",
	"GET /api/quiz/history?grade=...&subject=...&marks=...&from=...&to=...",
	"GET /api/quiz/retry/{quizId}",
	"GET /api/quiz/hint/{quizId}?question_text=...&subject=...",
}

func (h *MetaHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "AI Quizzer API is running.",
		"routes":  routeIndex,
	})
}

func (h *MetaHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Route not found", r))
}

func (h *MetaHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResp("METHOD_NOT_ALLOWED", "Method not allowed", r))
}
