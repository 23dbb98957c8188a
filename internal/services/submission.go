package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizzer-backend/internal/models"
	"quizzer-backend/internal/observability"
)

// SubmissionResult is what a graded submission reports back to the caller.
type SubmissionResult struct {
	Submission *models.Submission
	Quiz       *models.Quiz
	Grade      GradeResult
}

type SubmissionService struct {
	quizzes     QuizStore
	submissions SubmissionStore
	tips        *TipService
	cache       LeaderboardCache
	notifier    *ResultNotifier
	metrics     *observability.Metrics
	log         *zap.Logger
}

func NewSubmissionService(
	quizzes QuizStore,
	submissions SubmissionStore,
	tips *TipService,
	cache LeaderboardCache,
	notifier *ResultNotifier,
	metrics *observability.Metrics,
	log *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		quizzes:     quizzes,
		submissions: submissions,
		tips:        tips,
		cache:       cache,
		notifier:    notifier,
		metrics:     metrics,
		log:         log.Named("submission"),
	}
}

// decodeAnswers requires a JSON array of {question_id, answer} objects.
func decodeAnswers(raw json.RawMessage) ([]models.SubmittedAnswer, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ValidationError{
			Message: "Quiz ID and an array of answers are required.",
			Fields:  map[string]string{"answers": "Answers must be an array"},
		}
	}

	var answers []models.SubmittedAnswer
	if err := json.Unmarshal(trimmed, &answers); err != nil {
		return nil, &ValidationError{
			Message: "Quiz ID and an array of answers are required.",
			Fields:  map[string]string{"answers": "Each answer needs a scalar question_id and answer"},
		}
	}
	return answers, nil
}

// Submit grades answers against the stored quiz and records the attempt. When
// the tip call fails nothing is stored.
func (s *SubmissionService) Submit(ctx context.Context, userID, quizID uuid.UUID, rawAnswers json.RawMessage) (*SubmissionResult, error) {
	answers, err := decodeAnswers(rawAnswers)
	if err != nil {
		return nil, err
	}

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("Quiz ID %s not found.", quizID))
	}

	grade := Grade(quiz.Questions, answers)

	suggestions := perfectScoreMessage
	if len(grade.Mistakes) > 0 {
		suggestions, err = s.tips.Tips(ctx, grade.Mistakes)
		if err != nil {
			return nil, err
		}
	}

	sub := &models.Submission{
		QuizID:        quiz.ID,
		UserID:        userID,
		UserAnswers:   append(json.RawMessage(nil), bytes.TrimSpace(rawAnswers)...),
		FinalScore:    grade.Score,
		MaxScore:      grade.Total,
		AISuggestions: suggestions,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	s.metrics.SubmissionGraded(quiz.Subject, grade.Score)
	s.invalidateLeaderboard(ctx, quiz)
	s.log.Info("submission graded",
		zap.String("submission_id", sub.ID.String()),
		zap.String("quiz_id", quiz.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("correct", grade.Correct),
		zap.Int("total", grade.Total),
		zap.Float64("score", grade.Score),
	)

	result := &SubmissionResult{Submission: sub, Quiz: quiz, Grade: grade}
	if s.notifier != nil {
		s.notifier.Notify(ctx, userID, result)
	}
	return result, nil
}

func (s *SubmissionService) invalidateLeaderboard(ctx context.Context, quiz *models.Quiz) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, quiz.GradeLevel, quiz.Subject); err != nil {
		s.log.Warn("failed to invalidate leaderboard cache",
			zap.String("grade", quiz.GradeLevel),
			zap.String("subject", quiz.Subject),
			zap.Error(err),
		)
	}
}

// RoundedScore is the two-decimal score shown to clients.
func (r *SubmissionResult) RoundedScore() float64 {
	return roundScore(r.Grade.Score)
}
