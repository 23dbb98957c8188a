package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quizzer-backend/internal/config"
	"quizzer-backend/internal/database"
	"quizzer-backend/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.New(logger.Options{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile})
		defer log.Sync()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		return database.RunMigrations(ctx, pool, migrationsDir(cmd, cfg), log)
	},
}

func migrationsDir(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("migrations"); dir != "" {
		return dir
	}
	return cfg.MigrationsDir
}
