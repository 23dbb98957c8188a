package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quizzer",
	Short: "AI Quizzer backend",
	Long:  "AI Quizzer generates adaptive quizzes with an LLM, grades submissions and serves history and leaderboards.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("migrations", "", "Migrations directory (overrides MIGRATIONS_DIR)")
	rootCmd.PersistentFlags().Bool("skip-migrations", false, "Do not apply migrations on startup")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
