package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"quizzer-backend/internal/handlers"
	"quizzer-backend/internal/middleware"
	"quizzer-backend/internal/observability"
)

type Deps struct {
	Log                *zap.Logger
	Metrics            *observability.Metrics
	JWTAuth            *middleware.JWTAuth
	AuthLimiter        *middleware.RateLimiter
	AILimiter          *middleware.RateLimiter
	AllowedOrigins     []string
	AuthHandler        *handlers.AuthHandler
	QuizHandler        *handlers.QuizHandler
	LeaderboardHandler *handlers.LeaderboardHandler
	MetaHandler        *handlers.MetaHandler
}

func New(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS(d.AllowedOrigins))

	r.Get("/health", d.MetaHandler.Health)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	passthrough := func(next http.Handler) http.Handler { return next }
	aiLimit := passthrough
	if d.AILimiter != nil {
		aiLimit = d.AILimiter.Middleware
	}
	authLimit := passthrough
	if d.AuthLimiter != nil {
		authLimit = d.AuthLimiter.Middleware
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", d.MetaHandler.Index)

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimit)
			r.Post("/login", d.AuthHandler.Login)
		})

		// ──── Leaderboard (public) ────
		r.Get("/leaderboard", d.LeaderboardHandler.Get)

		// ──── Quiz Routes ────
		r.Route("/quiz", func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)

			r.With(aiLimit).Post("/generate", d.QuizHandler.Generate)
			r.With(aiLimit).Post("/submit", d.QuizHandler.Submit)
			r.With(aiLimit).Get("/hint/{quizId}", d.QuizHandler.Hint)
			r.Get("/history", d.QuizHandler.History)
			r.Get("/retry/{quizId}", d.QuizHandler.Retry)
		})
	})

	r.NotFound(d.MetaHandler.NotFound)
	r.MethodNotAllowed(d.MetaHandler.MethodNotAllowed)

	return r
}
