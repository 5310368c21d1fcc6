package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"go-gin-auth-service/internal/domain"
)

// Worker 消费生命周期事件；目前只记录日志，下游逻辑由订阅方实现
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *zap.Logger
}

func NewWorker(o RedisOpts, concurrency int, l *zap.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 4
	}
	w := &Worker{log: l}
	w.server = asynq.NewServer(o.asynq(), asynq.Config{
		Concurrency:    concurrency,
		Queues:         map[string]int{Queue: 1},
		RetryDelayFunc: RetryDelay,
		ErrorHandler:   asynq.ErrorHandlerFunc(w.handleError),
		Logger:         l.Sugar(),
	})
	w.mux = NewMux(l)
	return w
}

// NewMux 注册各事件类型的处理函数
func NewMux(l *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeUserCreated, userHandler(l, TypeUserCreated))
	mux.HandleFunc(TypeUserUpdated, userHandler(l, TypeUserUpdated))
	mux.HandleFunc(TypeProblemCreated, problemCreatedHandler(l))
	return mux
}

func userHandler(l *zap.Logger, typ string) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var evt domain.UserEvent
		if err := json.Unmarshal(t.Payload(), &evt); err != nil {
			processedTotal.WithLabelValues(typ, "bad_payload").Inc()
			// 格式错误重试也不会成功
			return fmt.Errorf("decode %s: %v: %w", typ, err, asynq.SkipRetry)
		}
		if evt.ID == "" {
			processedTotal.WithLabelValues(typ, "bad_payload").Inc()
			return fmt.Errorf("%s without id: %w", typ, asynq.SkipRetry)
		}
		l.Info("user event",
			zap.String("type", typ),
			zap.String("user_id", evt.ID),
			zap.String("email", evt.Email),
		)
		processedTotal.WithLabelValues(typ, "ok").Inc()
		return nil
	}
}

// problem:created 由题目服务发出，这里只记录
func problemCreatedHandler(l *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload map[string]any
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			processedTotal.WithLabelValues(TypeProblemCreated, "bad_payload").Inc()
			return fmt.Errorf("decode %s: %v: %w", TypeProblemCreated, err, asynq.SkipRetry)
		}
		l.Info("problem created", zap.Any("payload", payload))
		processedTotal.WithLabelValues(TypeProblemCreated, "ok").Inc()
		return nil
	}
}

func (w *Worker) handleError(ctx context.Context, t *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	fields := []zap.Field{
		zap.String("type", t.Type()),
		zap.Int("retried", retried),
		zap.Int("max_retry", maxRetry),
		zap.Error(err),
	}
	if retried >= maxRetry || errors.Is(err, asynq.SkipRetry) {
		processedTotal.WithLabelValues(t.Type(), "dropped").Inc()
		w.log.Error("event dropped", fields...)
		return
	}
	processedTotal.WithLabelValues(t.Type(), "retry").Inc()
	w.log.Warn("event failed, will retry", fields...)
}

// Start 后台运行，返回后即可处理任务
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Run 阻塞直到收到 SIGTERM/SIGINT
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
