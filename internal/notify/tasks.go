package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeSendEmail is the asynq task type carrying one Email.
const TypeSendEmail = "email:send"

const defaultMaxRetry = 5

// TaskQueue enqueues e-mails as asynq tasks in Redis. Delivery happens in
// whichever process runs an asynq server with NewTaskMux.
type TaskQueue struct {
	client   *asynq.Client
	maxRetry int
}

func NewTaskQueue(client *asynq.Client) *TaskQueue {
	return &TaskQueue{client: client, maxRetry: defaultMaxRetry}
}

// NewEmailTask encodes e as a task. The e-mail id doubles as the task id,
// so enqueueing the same message twice delivers it once.
func NewEmailTask(e Email, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode e-mail task: %w", err)
	}
	return asynq.NewTask(TypeSendEmail, payload, asynq.TaskID(e.ID), asynq.MaxRetry(maxRetry)), nil
}

func (q *TaskQueue) Dispatch(ctx context.Context, e Email) error {
	task, err := NewEmailTask(e, q.maxRetry)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue e-mail: %w", err)
	}
	return nil
}

// NewTaskMux routes e-mail tasks to mailer. Undecodable payloads are not
// retried.
func NewTaskMux(mailer Mailer, log *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSendEmail, func(ctx context.Context, t *asynq.Task) error {
		var e Email
		if err := json.Unmarshal(t.Payload(), &e); err != nil {
			log.Error("dropping malformed e-mail task", zap.Error(err))
			return fmt.Errorf("decode e-mail task: %v: %w", err, asynq.SkipRetry)
		}
		if err := mailer.Send(ctx, e); err != nil {
			log.Warn("e-mail delivery failed, will retry",
				zap.String("id", e.ID),
				zap.String("to", e.To),
				zap.Error(err),
			)
			return err
		}
		return nil
	})
	return mux
}
