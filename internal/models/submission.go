package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Submission struct {
	ID            uuid.UUID       `json:"submission_id"`
	QuizID        uuid.UUID       `json:"quiz_id"`
	UserID        uuid.UUID       `json:"user_id"`
	UserAnswers   json.RawMessage `json:"user_answers"`
	FinalScore    float64         `json:"final_score"`
	MaxScore      int             `json:"max_score"`
	AISuggestions string          `json:"ai_suggestions"`
	CompletedAt   time.Time       `json:"completed_at"`
}

type SubmitQuizRequest struct {
	QuizID string `json:"quiz_id"`
	// Answers is kept verbatim so the submission row stores exactly what was sent.
	Answers json.RawMessage `json:"answers"`
}

// SubmittedAnswer is one entry of the answers array. Both fields accept JSON
// strings, numbers or booleans and are compared in their string form.
type SubmittedAnswer struct {
	QuestionID ScalarString `json:"question_id"`
	Answer     ScalarString `json:"answer"`
}

// ScalarString decodes any JSON scalar into its string form. null decodes to "".
type ScalarString string

func (s *ScalarString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = ScalarString(str)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*s = ScalarString(strconv.FormatBool(b))
	case '{', '[':
		return fmt.Errorf("expected a scalar value, got %s", string(data[:1]))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*s = ScalarString(normalizeNumber(n))
	}
	return nil
}

// normalizeNumber renders integral numbers without a fraction so 2 and 2.0 match.
func normalizeNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

type SubmitQuizResponse struct {
	Message        string    `json:"message"`
	Score          float64   `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CorrectCount   int       `json:"correct_count"`
	AISuggestions  string    `json:"ai_suggestions"`
	SubmissionID   uuid.UUID `json:"submission_id"`
}

// Mistake is one incorrect or unanswered question, in quiz order.
type Mistake struct {
	QuestionText  string
	CorrectAnswer string
	UserAnswer    string
}

type HistoryFilter struct {
	Grade    string
	Subject  string
	MinScore *float64
	From     *time.Time
	To       *time.Time
}

type HistoryEntry struct {
	SubmissionID  uuid.UUID `json:"submission_id"`
	QuizID        uuid.UUID `json:"quiz_id"`
	GradeLevel    string    `json:"grade_level"`
	Subject       string    `json:"subject"`
	FinalScore    float64   `json:"final_score"`
	MaxScore      int       `json:"max_score"`
	AISuggestions string    `json:"ai_suggestions"`
	CompletedAt   time.Time `json:"completed_at"`
}

type HistoryResponse struct {
	Message string          `json:"message"`
	History []*HistoryEntry `json:"history"`
}

type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	Username    string    `json:"username"`
	FinalScore  float64   `json:"final_score"`
	CompletedAt time.Time `json:"completed_at"`
	GradeLevel  string    `json:"grade_level"`
	Subject     string    `json:"subject"`
}

type LeaderboardResponse struct {
	Message     string              `json:"message"`
	Leaderboard []*LeaderboardEntry `json:"leaderboard"`
}
