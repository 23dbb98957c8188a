package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionShortAnswer    = "short_answer"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Quiz struct {
	ID                   uuid.UUID  `json:"quiz_id"`
	UserID               uuid.UUID  `json:"user_id"`
	GradeLevel           string     `json:"grade_level"`
	Subject              string     `json:"subject"`
	Questions            []Question `json:"questions"`
	DifficultyAdjustment string     `json:"difficulty_adjustment"`
	GeneratedAt          time.Time  `json:"generated_at"`
}

// Question is stored inside the quiz row. CorrectAnswer never leaves the server;
// handlers render PublicQuestion instead.
type Question struct {
	QuestionID    int      `json:"question_id"`
	QuestionText  string   `json:"question_text"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Difficulty    string   `json:"difficulty"`
}

// UnmarshalJSON accepts an integral float question_id such as 1.0, which
// JSON Schema treats as an integer.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	var aux struct {
		plain
		QuestionID json.Number `json:"question_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*q = Question(aux.plain)
	q.QuestionID = 0
	if aux.QuestionID == "" {
		return nil
	}
	f, err := aux.QuestionID.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("question_id %s is not an integer", aux.QuestionID)
	}
	q.QuestionID = int(f)
	return nil
}

type PublicQuestion struct {
	QuestionID   int      `json:"question_id"`
	QuestionText string   `json:"question_text"`
	Type         string   `json:"type"`
	Options      []string `json:"options,omitempty"`
	Difficulty   string   `json:"difficulty"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		QuestionID:   q.QuestionID,
		QuestionText: q.QuestionText,
		Type:         q.Type,
		Options:      q.Options,
		Difficulty:   q.Difficulty,
	}
}

func PublicQuestions(qs []Question) []PublicQuestion {
	out := make([]PublicQuestion, len(qs))
	for i, q := range qs {
		out[i] = q.Public()
	}
	return out
}

type GenerateQuizRequest struct {
	GradeLevel   string `json:"grade_level"`
	Subject      string `json:"subject"`
	NumQuestions int    `json:"num_questions"`
}

type GenerateQuizResponse struct {
	Message              string           `json:"message"`
	QuizID               uuid.UUID        `json:"quiz_id"`
	Questions            []PublicQuestion `json:"questions"`
	DifficultyAdjustment string           `json:"difficulty_adjustment"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

type HintResponse struct {
	Message string `json:"message"`
	Hint    string `json:"hint"`
}

type RetryDetails struct {
	QuizID          uuid.UUID        `json:"quiz_id"`
	GradeLevel      string           `json:"grade_level"`
	Subject         string           `json:"subject"`
	Questions       []PublicQuestion `json:"questions"`
	PastSubmissions []*Submission    `json:"past_submissions"`
}

type RetryResponse struct {
	Message     string       `json:"message"`
	QuizDetails RetryDetails `json:"quiz_details"`
}
