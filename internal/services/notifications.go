package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizzer-backend/internal/models"
)

// ResultNotifier queues a result email after a graded submission. Failures
// are logged and never reach the caller.
type ResultNotifier struct {
	users   UserStore
	queue   JobQueue
	enabled bool
	log     *zap.Logger
}

func NewResultNotifier(users UserStore, queue JobQueue, enabled bool, log *zap.Logger) *ResultNotifier {
	return &ResultNotifier{users: users, queue: queue, enabled: enabled, log: log.Named("notifier")}
}

func (n *ResultNotifier) Notify(ctx context.Context, userID uuid.UUID, res *SubmissionResult) {
	if n == nil || !n.enabled || n.queue == nil {
		return
	}

	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.log.Warn("failed to load user for result email", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	if user.Email == nil || *user.Email == "" {
		return
	}

	job := buildNotificationJob(user, res)
	if err := n.queue.Enqueue(ctx, job); err != nil {
		n.log.Warn("failed to enqueue result email",
			zap.String("submission_id", res.Submission.ID.String()),
			zap.Error(err),
		)
		return
	}
	n.log.Debug("result email queued", zap.String("job_id", job.ID.String()))
}

func buildNotificationJob(user *models.User, res *SubmissionResult) *models.NotificationJob {
	return &models.NotificationJob{
		ID:             uuid.New(),
		Type:           models.JobTypeResultNotification,
		UserID:         user.ID,
		SubmissionID:   res.Submission.ID,
		Email:          *user.Email,
		Username:       user.Username,
		GradeLevel:     res.Quiz.GradeLevel,
		Subject:        res.Quiz.Subject,
		Score:          res.RoundedScore(),
		CorrectCount:   res.Grade.Correct,
		TotalQuestions: res.Grade.Total,
		Suggestions:    res.Submission.AISuggestions,
		CreatedAt:      res.Submission.CompletedAt,
	}
}
