package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"quizzer-backend/internal/config"
	"quizzer-backend/internal/models"
)

const (
	difficultyNeutral = "neutral (suggest maintaining 'medium' difficulty for a baseline assessment)"
	difficultyHigh    = "high performance (suggest increasing difficulty to 'hard')"
	difficultyLow     = "low performance (suggest decreasing difficulty to 'easy')"
	difficultyMedium  = "medium performance (suggest maintaining 'medium' difficulty)"
)

var quotedLabel = regexp.MustCompile(`'([^']+)'`)

// DifficultySignal is the prompt fragment describing recent performance plus
// the difficulty label stored on the quiz.
type DifficultySignal struct {
	Description string
	Label       string
}

type DifficultyEstimator struct {
	scores   ScoreReader
	settings config.QuizSettings
}

func NewDifficultyEstimator(scores ScoreReader, settings config.QuizSettings) *DifficultyEstimator {
	return &DifficultyEstimator{scores: scores, settings: settings}
}

// Estimate classifies the mean of the user's most recent submissions.
func (e *DifficultyEstimator) Estimate(ctx context.Context, userID uuid.UUID) (DifficultySignal, error) {
	scores, err := e.scores.RecentScores(ctx, userID, e.settings.RecentWindow)
	if err != nil {
		return DifficultySignal{}, fmt.Errorf("failed to load recent scores: %w", err)
	}
	return ClassifyScores(scores, e.settings), nil
}

// ClassifyScores maps recent scores to a difficulty signal. HIGH is checked
// before LOW, and both bounds are inclusive.
func ClassifyScores(scores []float64, settings config.QuizSettings) DifficultySignal {
	if len(scores) == 0 {
		return newSignal(difficultyNeutral)
	}

	var total float64
	for _, s := range scores {
		total += s
	}
	mean := total / float64(len(scores))

	switch {
	case mean >= settings.HighThreshold:
		return newSignal(difficultyHigh)
	case mean <= settings.LowThreshold:
		return newSignal(difficultyLow)
	default:
		return newSignal(difficultyMedium)
	}
}

func newSignal(description string) DifficultySignal {
	return DifficultySignal{Description: description, Label: labelFrom(description)}
}

// labelFrom returns the first single-quoted token, or "medium".
func labelFrom(description string) string {
	if m := quotedLabel.FindStringSubmatch(description); len(m) > 1 {
		return m[1]
	}
	return models.DifficultyMedium
}
