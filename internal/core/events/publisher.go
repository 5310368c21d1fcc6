package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"go-gin-auth-service/internal/domain"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Publisher 只负责提交；处理结果不回传
type Publisher struct {
	client enqueuer
}

func NewPublisher(o RedisOpts) *Publisher {
	return &Publisher{client: asynq.NewClient(o.asynq())}
}

func (p *Publisher) UserCreated(ctx context.Context, evt domain.UserEvent) error {
	return p.publish(ctx, TypeUserCreated, evt)
}

func (p *Publisher) UserUpdated(ctx context.Context, evt domain.UserEvent) error {
	return p.publish(ctx, TypeUserUpdated, evt)
}

func (p *Publisher) publish(ctx context.Context, typ string, evt domain.UserEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	task := asynq.NewTask(typ, body)
	_, err = p.client.EnqueueContext(ctx, task,
		asynq.Queue(Queue),
		asynq.MaxRetry(MaxAttempts-1),
	)
	if err != nil {
		enqueuedTotal.WithLabelValues(typ, "error").Inc()
		return fmt.Errorf("enqueue %s: %w", typ, err)
	}
	enqueuedTotal.WithLabelValues(typ, "ok").Inc()
	return nil
}

func (p *Publisher) Close() error { return p.client.Close() }
