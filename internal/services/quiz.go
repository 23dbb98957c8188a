package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizzer-backend/internal/config"
	"quizzer-backend/internal/llm"
	"quizzer-backend/internal/models"
	"quizzer-backend/internal/observability"
)

const quizSystemInstruction = "You are a professional quiz generator. Your task is to create a quiz in the requested JSON format ONLY. " +
	"Ensure the quiz balances question difficulty based on the provided user performance factor. " +
	"Do not include any text outside the JSON object."

var quizSchema = &llm.Schema{
	Name:        "quiz",
	Description: "A list of quiz questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_id":   map[string]any{"type": "integer"},
						"question_text": map[string]any{"type": "string"},
						"type": map[string]any{
							"type": "string",
							"enum": []string{models.QuestionMultipleChoice, models.QuestionTrueFalse, models.QuestionShortAnswer},
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Only for multiple_choice",
						},
						"correct_answer": map[string]any{"type": "string"},
						"difficulty": map[string]any{
							"type": "string",
							"enum": []string{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard},
						},
					},
					"required": []string{"question_id", "question_text", "type", "correct_answer", "difficulty"},
				},
			},
		},
		"required": []string{"questions"},
	},
}

type generatedQuiz struct {
	Questions []models.Question `json:"questions"`
}

type QuizService struct {
	quizzes    QuizStore
	difficulty *DifficultyEstimator
	ai         AIClient
	settings   config.QuizSettings
	metrics    *observability.Metrics
	log        *zap.Logger
}

func NewQuizService(quizzes QuizStore, difficulty *DifficultyEstimator, ai AIClient, settings config.QuizSettings, metrics *observability.Metrics, log *zap.Logger) *QuizService {
	return &QuizService{
		quizzes:    quizzes,
		difficulty: difficulty,
		ai:         ai,
		settings:   settings,
		metrics:    metrics,
		log:        log.Named("quiz"),
	}
}

func quizPrompt(numQuestions int, subject, grade, difficulty string) string {
	return fmt.Sprintf(
		"Generate a %d-question quiz on the subject of %q for a grade level %s student. "+
			"The user's past performance suggests: %s. Structure the questions to align with this difficulty assessment.",
		numQuestions, subject, grade, difficulty)
}

// Generate builds and stores a new quiz. The returned quiz still carries the
// correct answers; callers render it with models.PublicQuestions.
func (s *QuizService) Generate(ctx context.Context, userID uuid.UUID, grade, subject string, numQuestions int) (*models.Quiz, error) {
	grade = strings.TrimSpace(grade)
	subject = strings.TrimSpace(subject)

	fields := make(map[string]string)
	if grade == "" {
		fields["grade_level"] = "Grade level is required"
	}
	if subject == "" {
		fields["subject"] = "Subject is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Message: "Grade level and subject are required in the request body.", Fields: fields}
	}
	if numQuestions <= 0 {
		numQuestions = s.settings.DefaultQuestions
	}

	signal, err := s.difficulty.Estimate(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out generatedQuiz
	ctx = llm.WithPurpose(ctx, llm.PurposeQuiz)
	if err := s.ai.JSON(ctx, quizSystemInstruction, quizPrompt(numQuestions, subject, grade, signal.Description), quizSchema, &out); err != nil {
		return nil, generationFailure("Failed to generate quiz", err)
	}

	quiz := &models.Quiz{
		UserID:               userID,
		GradeLevel:           grade,
		Subject:              subject,
		Questions:            normalizeQuestions(out.Questions),
		DifficultyAdjustment: signal.Label,
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to save quiz: %w", err)
	}

	s.metrics.QuizGenerated(subject)
	s.log.Info("quiz generated",
		zap.String("quiz_id", quiz.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("grade", grade),
		zap.String("subject", subject),
		zap.Int("requested", numQuestions),
		zap.Int("questions", len(quiz.Questions)),
		zap.String("difficulty", signal.Label),
	)
	return quiz, nil
}

// normalizeQuestions drops options outside multiple choice and renumbers ids
// 1..n when the model returned duplicates or non-positive ids.
func normalizeQuestions(in []models.Question) []models.Question {
	out := make([]models.Question, len(in))
	seen := make(map[int]bool, len(in))
	renumber := false
	for i, q := range in {
		if q.Type != models.QuestionMultipleChoice {
			q.Options = nil
		}
		if q.QuestionID <= 0 || seen[q.QuestionID] {
			renumber = true
		}
		seen[q.QuestionID] = true
		out[i] = q
	}
	if renumber {
		for i := range out {
			out[i].QuestionID = i + 1
		}
	}
	return out
}

func (s *QuizService) GetByID(ctx context.Context, quizID uuid.UUID) (*models.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("Quiz ID %s not found.", quizID))
	}
	return quiz, nil
}
