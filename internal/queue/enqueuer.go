// Package queue hands lifecycle events to the background worker over asynq.
package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/meetup-planner/app/internal/queue/tasks"
	"github.com/meetup-planner/app/pkg/logger"
	"go.uber.org/zap"
)

// TaskClient is the subset of *asynq.Client the enqueuer uses.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer publishes finalized meetups as tasks. It satisfies services.Notifier.
type Enqueuer struct {
	client TaskClient
}

func NewEnqueuer(client TaskClient) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) MeetupFinalized(ctx context.Context, meetupID uint) error {
	task, err := tasks.NewMeetupFinalizedTask(meetupID)
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return err
	}
	logger.L().Info("meetup finalized task enqueued", zap.Uint("meetup_id", meetupID), zap.String("task_id", info.ID), zap.String("queue", info.Queue))
	return nil
}
