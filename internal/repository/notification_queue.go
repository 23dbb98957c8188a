package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quizzer-backend/internal/models"
)

const NotificationQueueKey = "queue:" + models.JobTypeResultNotification

// ErrQueueEmpty is returned by Dequeue when the blocking pop timed out.
var ErrQueueEmpty = errors.New("queue empty")

// NotificationQueue is a redis list of result notification jobs.
type NotificationQueue struct {
	client *redis.Client
}

func NewNotificationQueue(client *redis.Client) *NotificationQueue {
	return &NotificationQueue{client: client}
}

func (q *NotificationQueue) Enqueue(ctx context.Context, job *models.NotificationJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Type == "" {
		job.Type = models.JobTypeResultNotification
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode notification job: %w", err)
	}
	return q.client.RPush(ctx, NotificationQueueKey, raw).Err()
}

func (q *NotificationQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.NotificationJob, error) {
	result, err := q.client.BLPop(ctx, timeout, NotificationQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}
	if len(result) < 2 {
		return nil, ErrQueueEmpty
	}

	var job models.NotificationJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to parse notification job: %w", err)
	}
	return &job, nil
}
