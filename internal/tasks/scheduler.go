package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	emailQueue    = "email"
	emailMaxRetry = 5
	emailTimeout  = 30 * time.Second
)

// AsynqScheduler enqueues tasks on a Redis-backed asynq queue.
type AsynqScheduler struct {
	client *asynq.Client
}

func NewAsynqScheduler(opt asynq.RedisClientOpt) *AsynqScheduler {
	return &AsynqScheduler{client: asynq.NewClient(opt)}
}

func (s *AsynqScheduler) ScheduleResetPasswordEmail(
	ctx context.Context,
	p ResetPasswordEmailPayload,
) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal reset email payload: %w", err)
	}

	task := asynq.NewTask(TypeResetPasswordEmail, payload)
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.Queue(emailQueue),
		asynq.MaxRetry(emailMaxRetry),
		asynq.Timeout(emailTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue reset email task: %w", err)
	}
	return nil
}

func (s *AsynqScheduler) Close() error {
	return s.client.Close()
}
