package models

import (
	"time"

	"github.com/google/uuid"
)

const JobTypeResultNotification = "result-notification"

// NotificationJob is queued in redis after a submission when the user has an email.
type NotificationJob struct {
	ID             uuid.UUID `json:"id"`
	Type           string    `json:"type"`
	UserID         uuid.UUID `json:"user_id"`
	SubmissionID   uuid.UUID `json:"submission_id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	GradeLevel     string    `json:"grade_level"`
	Subject        string    `json:"subject"`
	Score          float64   `json:"score"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	Suggestions    string    `json:"suggestions"`
	RetryCount     int       `json:"retry_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   string            `json:"details,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
