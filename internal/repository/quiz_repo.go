package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizzer-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

func (r *QuizRepo) Create(ctx context.Context, q *models.Quiz) error {
	q.ID = uuid.New()
	content, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode quiz content: %w", err)
	}

	query := `INSERT INTO quizzes (id, user_id, grade_level, subject, quiz_content, difficulty_adjustment)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING generated_at`

	return r.pool.QueryRow(ctx, query,
		q.ID, q.UserID, q.GradeLevel, q.Subject, content, q.DifficultyAdjustment,
	).Scan(&q.GeneratedAt)
}

// GetByID returns pgx.ErrNoRows for unknown ids.
func (r *QuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q := &models.Quiz{}
	var content []byte
	query := `SELECT id, user_id, grade_level, subject, quiz_content, difficulty_adjustment, generated_at
		FROM quizzes WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.UserID, &q.GradeLevel, &q.Subject, &content, &q.DifficultyAdjustment, &q.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &q.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode quiz %s content: %w", id, err)
	}
	return q, nil
}
