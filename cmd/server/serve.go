package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizzer-backend/internal/config"
	"quizzer-backend/internal/database"
	"quizzer-backend/internal/handlers"
	"quizzer-backend/internal/llm"
	"quizzer-backend/internal/logger"
	"quizzer-backend/internal/middleware"
	"quizzer-backend/internal/observability"
	"quizzer-backend/internal/repository"
	"quizzer-backend/internal/router"
	"quizzer-backend/internal/services"
	"quizzer-backend/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the notification workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(logger.Options{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile})
	defer log.Sync()
	log.Info("starting AI Quizzer backend", zap.String("env", cfg.Env), zap.String("llm_provider", cfg.LLMProvider))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Tracing ────
	shutdownTracing, err := observability.InitTracing(ctx, log, observability.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: observability.TracerName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	metrics := observability.NewMetrics()

	// ──── PostgreSQL ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	if skip, _ := cmd.Flags().GetBool("skip-migrations"); !skip {
		if err := database.RunMigrations(ctx, pool, migrationsDir(cmd, cfg), log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	// ──── Redis ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClients.Close()
	log.Info("redis connected")

	// ──── LLM ────
	provider, err := llm.NewProvider(ctx, llm.Config{
		Provider:  cfg.LLMProvider,
		Gemini:    llm.GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel},
		OpenAI:    llm.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		Anthropic: llm.AnthropicConfig{APIKey: cfg.AnthropicAPIKey, Model: cfg.AnthropicModel},
	})
	if err != nil {
		return err
	}
	defer llm.CloseProvider(provider)

	aiClient := llm.NewClient(llm.WithInstrumentation(provider, metrics, log), log, llm.ClientOptions{
		Retry: llm.RetryPolicy{
			MaxAttempts: cfg.LLMMaxAttempts,
			InitialWait: cfg.LLMInitialBackoff,
			Multiplier:  2,
		},
		ConcurrentRequests: cfg.LLMConcurrentReqs,
		RequestTimeout:     cfg.LLMRequestTimeout,
	})
	log.Info("llm client ready", zap.String("provider", provider.Name()), zap.String("model", provider.ModelID()))

	// ──── Repositories ────
	userRepo := repository.NewUserRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)
	submissionRepo := repository.NewSubmissionRepo(pool)
	leaderboardCache := repository.NewLeaderboardCache(redisClients.Cache, cfg.LeaderboardCacheTTL)
	notificationQueue := repository.NewNotificationQueue(redisClients.Queue)

	// ──── Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.JWTExpiresIn)
	authService := services.NewAuthService(userRepo, jwtAuth, cfg.VerifyPasswords, log)
	difficulty := services.NewDifficultyEstimator(submissionRepo, cfg.Quiz)
	tipService := services.NewTipService(aiClient)
	quizService := services.NewQuizService(quizRepo, difficulty, aiClient, cfg.Quiz, metrics, log)
	notifier := services.NewResultNotifier(userRepo, notificationQueue, cfg.NotificationsEnabled, log)
	submissionService := services.NewSubmissionService(quizRepo, submissionRepo, tipService, leaderboardCache, notifier, metrics, log)
	queryService := services.NewQueryService(quizRepo, submissionRepo, leaderboardCache, cfg.Quiz, metrics, log)
	emailService := services.NewEmailService(services.EmailConfig{
		Host:          cfg.SMTPHost,
		Port:          cfg.SMTPPort,
		User:          cfg.SMTPUser,
		Pass:          cfg.SMTPPass,
		From:          cfg.SMTPFrom,
		ResultSubject: cfg.ResultEmailSubject,
	}, log)

	// ──── Handlers ────
	errs := handlers.NewErrorHandler(log, !cfg.IsProduction())
	meta := handlers.NewMetaHandler(map[string]handlers.Pinger{
		"postgres": pool.Ping,
		"redis": func(ctx context.Context) error {
			return redisClients.Cache.Ping(ctx).Err()
		},
	})

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute)
	defer authLimiter.Stop()
	aiLimiter := middleware.NewRateLimiter(cfg.AIRateLimit, time.Minute)
	defer aiLimiter.Stop()

	handler := router.New(router.Deps{
		Log:                log,
		Metrics:            metrics,
		JWTAuth:            jwtAuth,
		AuthLimiter:        authLimiter,
		AILimiter:          aiLimiter,
		AllowedOrigins:     cfg.AllowedOrigins,
		AuthHandler:        handlers.NewAuthHandler(errs, authService),
		QuizHandler:        handlers.NewQuizHandler(errs, quizService, submissionService, queryService, tipService),
		LeaderboardHandler: handlers.NewLeaderboardHandler(errs, queryService),
		MetaHandler:        meta,
	})

	// ──── Notification workers ────
	workers := worker.NewPool(notificationQueue, emailService, metrics, log, cfg.NotificationWorkers)
	workers.Start(ctx)

	// ──── HTTP server ────
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Quiz generation may retry the model before answering.
		WriteTimeout: cfg.LLMRequestTimeout*time.Duration(max(cfg.LLMMaxAttempts, 1)) + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			workers.Stop()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	workers.Stop()
	log.Info("shutdown complete")
	return nil
}
