package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quizzer-backend/internal/llm"
	"quizzer-backend/internal/models"
)

const (
	tipsSystemInstruction = "You are an encouraging and helpful tutor. Your task is to provide exactly 2 concise, actionable improvement tips " +
		"based ONLY on the student's mistakes below. Respond only with the two tips, separated by a newline."
	hintSystemInstruction = "You are a creative and supportive tutor. Provide a very subtle, single-sentence hint for the question. " +
		"The hint should guide the user but MUST NOT reveal the direct answer."
)

// TipService produces free-text coaching from the model.
type TipService struct {
	ai AIClient
}

func NewTipService(ai AIClient) *TipService {
	return &TipService{ai: ai}
}

func mistakeSummary(mistakes []models.Mistake) string {
	lines := make([]string, len(mistakes))
	for i, m := range mistakes {
		lines[i] = fmt.Sprintf("Mistake on question: %q. User's answer was %q, correct is %q.", m.QuestionText, m.UserAnswer, m.CorrectAnswer)
	}
	return strings.Join(lines, "\n")
}

// Tips asks for two improvement tips covering the given mistakes, in order.
func (s *TipService) Tips(ctx context.Context, mistakes []models.Mistake) (string, error) {
	prompt := "Based on the following quiz mistakes, give two improvement tips:\n\n" + mistakeSummary(mistakes)
	text, err := s.ai.Text(llm.WithPurpose(ctx, llm.PurposeTips), tipsSystemInstruction, prompt)
	if err != nil {
		return "", generationFailure("Failed to generate improvement tips", err)
	}
	return text, nil
}

// Hint returns a one-sentence nudge for a question without giving the answer away.
func (s *TipService) Hint(ctx context.Context, questionText, subject string) (string, error) {
	questionText = strings.TrimSpace(questionText)
	subject = strings.TrimSpace(subject)
	if questionText == "" || subject == "" {
		fields := make(map[string]string)
		if questionText == "" {
			fields["question_text"] = "Question text is required"
		}
		if subject == "" {
			fields["subject"] = "Subject is required"
		}
		return "", &ValidationError{
			Message: "Question text and subject must be provided as query parameters to generate a hint.",
			Fields:  fields,
		}
	}

	prompt := fmt.Sprintf("Generate a hint for this question on %s: %q", subject, questionText)
	text, err := s.ai.Text(llm.WithPurpose(ctx, llm.PurposeHint), hintSystemInstruction, prompt)
	if err != nil {
		return "", generationFailure("Failed to generate hint", err)
	}
	return text, nil
}

func generationFailure(msg string, err error) error {
	if errors.Is(err, llm.ErrGenerationFailed) {
		return &GenerationError{Message: msg, Err: err}
	}
	return err
}
