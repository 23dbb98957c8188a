package services

import (
	"context"

	"github.com/google/uuid"

	"quizzer-backend/internal/llm"
	"quizzer-backend/internal/models"
)

// These are satisfied by the postgres repositories and by memstore.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error
}

type QuizStore interface {
	Create(ctx context.Context, q *models.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
}

type ScoreReader interface {
	RecentScores(ctx context.Context, userID uuid.UUID, limit int) ([]float64, error)
}

type SubmissionStore interface {
	ScoreReader
	Create(ctx context.Context, s *models.Submission) error
	ListByQuizAndUser(ctx context.Context, quizID, userID uuid.UUID) ([]*models.Submission, error)
	History(ctx context.Context, userID uuid.UUID, f models.HistoryFilter) ([]*models.HistoryEntry, error)
	Leaderboard(ctx context.Context, grade, subject string, limit int) ([]*models.LeaderboardEntry, error)
}

// LeaderboardCache is optional; a nil cache always reads the store. Set must
// drop the write when Invalidate ran after Version was read.
type LeaderboardCache interface {
	Version(ctx context.Context, grade, subject string) (int64, error)
	Get(ctx context.Context, grade, subject string) ([]*models.LeaderboardEntry, error)
	Set(ctx context.Context, grade, subject string, version int64, entries []*models.LeaderboardEntry) error
	Invalidate(ctx context.Context, grade, subject string) error
}

type JobQueue interface {
	Enqueue(ctx context.Context, job *models.NotificationJob) error
}

// AIClient is implemented by *llm.Client.
type AIClient interface {
	Text(ctx context.Context, system, prompt string) (string, error)
	JSON(ctx context.Context, system, prompt string, schema *llm.Schema, out any) error
}
