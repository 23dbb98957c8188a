package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizzer-backend/internal/models"
)

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func (r *SubmissionRepo) Create(ctx context.Context, s *models.Submission) error {
	s.ID = uuid.New()
	answers := []byte(s.UserAnswers)
	if len(answers) == 0 {
		answers = []byte("[]")
	}

	query := `INSERT INTO submissions (id, quiz_id, user_id, user_answers, final_score, max_score, ai_suggestions)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING completed_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.QuizID, s.UserID, answers, s.FinalScore, s.MaxScore, s.AISuggestions,
	).Scan(&s.CompletedAt)
}

// RecentScores returns the user's latest final scores across all quizzes, newest first.
func (r *SubmissionRepo) RecentScores(ctx context.Context, userID uuid.UUID, limit int) ([]float64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT final_score FROM submissions WHERE user_id = $1 ORDER BY completed_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	scores, err := pgx.CollectRows(rows, pgx.RowTo[float64])
	if err != nil {
		return nil, fmt.Errorf("failed to read recent scores: %w", err)
	}
	return scores, nil
}

func (r *SubmissionRepo) ListByQuizAndUser(ctx context.Context, quizID, userID uuid.UUID) ([]*models.Submission, error) {
	query := `SELECT id, quiz_id, user_id, user_answers, final_score, max_score, ai_suggestions, completed_at
		FROM submissions WHERE quiz_id = $1 AND user_id = $2 ORDER BY completed_at DESC`

	rows, err := r.pool.Query(ctx, query, quizID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*models.Submission{}
	for rows.Next() {
		s := &models.Submission{}
		var answers []byte
		if err := rows.Scan(&s.ID, &s.QuizID, &s.UserID, &answers, &s.FinalScore, &s.MaxScore, &s.AISuggestions, &s.CompletedAt); err != nil {
			return nil, err
		}
		s.UserAnswers = answers
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// buildHistoryQuery assembles the filtered history select. Filters combine with AND.
func buildHistoryQuery(userID uuid.UUID, f models.HistoryFilter) (string, []interface{}) {
	var args []interface{}
	argIdx := 1

	where := fmt.Sprintf("WHERE s.user_id = $%d", argIdx)
	args = append(args, userID)
	argIdx++

	if f.Grade != "" {
		where += fmt.Sprintf(" AND q.grade_level ILIKE $%d", argIdx)
		args = append(args, "%"+f.Grade+"%")
		argIdx++
	}
	if f.Subject != "" {
		where += fmt.Sprintf(" AND q.subject ILIKE $%d", argIdx)
		args = append(args, "%"+f.Subject+"%")
		argIdx++
	}
	if f.MinScore != nil {
		where += fmt.Sprintf(" AND s.final_score >= $%d", argIdx)
		args = append(args, *f.MinScore)
		argIdx++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND s.completed_at >= $%d", argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND s.completed_at <= $%d", argIdx)
		args = append(args, *f.To)
	}

	query := `SELECT s.id, s.quiz_id, q.grade_level, q.subject, s.final_score, s.max_score, s.ai_suggestions, s.completed_at
		FROM submissions s
		JOIN quizzes q ON q.id = s.quiz_id
		` + where + `
		ORDER BY s.completed_at DESC`
	return query, args
}

func (r *SubmissionRepo) History(ctx context.Context, userID uuid.UUID, f models.HistoryFilter) ([]*models.HistoryEntry, error) {
	query, args := buildHistoryQuery(userID, f)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*models.HistoryEntry{}
	for rows.Next() {
		e := &models.HistoryEntry{}
		if err := rows.Scan(&e.SubmissionID, &e.QuizID, &e.GradeLevel, &e.Subject, &e.FinalScore, &e.MaxScore, &e.AISuggestions, &e.CompletedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Leaderboard ranks every submission for an exact grade and subject pair.
// Ties on score go to the earliest completion.
func (r *SubmissionRepo) Leaderboard(ctx context.Context, grade, subject string, limit int) ([]*models.LeaderboardEntry, error) {
	query := `SELECT u.username, s.final_score, s.completed_at, q.grade_level, q.subject
		FROM submissions s
		JOIN quizzes q ON q.id = s.quiz_id
		JOIN users u ON u.id = s.user_id
		WHERE q.grade_level = $1 AND q.subject = $2
		ORDER BY s.final_score DESC, s.completed_at ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, grade, subject, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*models.LeaderboardEntry{}
	for rows.Next() {
		e := &models.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&e.Username, &e.FinalScore, &e.CompletedAt, &e.GradeLevel, &e.Subject); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
