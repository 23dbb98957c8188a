package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"quizzer-backend/internal/models"
	"quizzer-backend/internal/observability"
	"quizzer-backend/internal/repository"
)

const (
	maxRetries  = 3
	popTimeout  = 5 * time.Second
	pauseOnFail = time.Second
)

type Queue interface {
	Enqueue(ctx context.Context, job *models.NotificationJob) error
	Dequeue(ctx context.Context, timeout time.Duration) (*models.NotificationJob, error)
}

type Sender interface {
	SendResultEmail(job *models.NotificationJob) error
}

// Pool drains the result notification queue. A failed send is re-queued with
// exponential backoff until maxRetries is reached, then dropped.
type Pool struct {
	queue       Queue
	sender      Sender
	metrics     *observability.Metrics
	log         *zap.Logger
	workerCount int
	backoff     func(retry int) time.Duration

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	pending sync.WaitGroup
}

func NewPool(queue Queue, sender Sender, metrics *observability.Metrics, log *zap.Logger, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		queue:       queue,
		sender:      sender,
		metrics:     metrics,
		log:         log.Named("worker"),
		workerCount: workerCount,
		backoff: func(retry int) time.Duration {
			return time.Duration(1<<uint(retry)) * time.Second
		},
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.worker(ctx, id)
		}(i)
	}
	p.log.Info("worker pool started", zap.Int("workers", p.workerCount))
}

// Stop cancels the workers and waits for in-flight sends and scheduled
// requeues to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.pending.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			p.log.Debug("worker shutting down", zap.Int("worker", id))
			return
		}

		job, err := p.queue.Dequeue(ctx, popTimeout)
		if err != nil {
			if errors.Is(err, repository.ErrQueueEmpty) || ctx.Err() != nil {
				continue
			}
			p.log.Warn("dequeue failed", zap.Int("worker", id), zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(pauseOnFail):
			}
			continue
		}

		p.process(ctx, job)
	}
}

func (p *Pool) process(ctx context.Context, job *models.NotificationJob) {
	if err := p.sender.SendResultEmail(job); err != nil {
		p.handleFailure(ctx, job, err)
		return
	}
	p.metrics.NotificationSent("sent")
	p.log.Info("result email sent",
		zap.String("job_id", job.ID.String()),
		zap.String("submission_id", job.SubmissionID.String()),
	)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.NotificationJob, err error) {
	job.RetryCount++
	if job.RetryCount >= maxRetries {
		p.metrics.NotificationSent("failed")
		p.log.Error("result email failed permanently",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempts", job.RetryCount),
			zap.Error(err),
		)
		return
	}

	p.metrics.NotificationSent("retried")
	wait := p.backoff(job.RetryCount)
	p.log.Warn("result email failed, retrying",
		zap.String("job_id", job.ID.String()),
		zap.Int("attempt", job.RetryCount),
		zap.Duration("backoff", wait),
		zap.Error(err),
	)

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		select {
		case <-ctx.Done():
			// Put it back so the next process start picks it up.
		case <-time.After(wait):
		}
		requeueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := p.queue.Enqueue(requeueCtx, job); err != nil {
			p.log.Error("failed to requeue result email", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
	}()
}
