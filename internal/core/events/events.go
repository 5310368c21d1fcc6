// Package events 用户生命周期事件：生产端投递到 asynq(redis)，消费端在 worker 进程处理。
package events

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	TypeUserCreated    = "user:created"
	TypeUserUpdated    = "user:updated"
	TypeProblemCreated = "problem:created"

	Queue = "auth-events"

	// 共 3 次尝试（首投 + 2 次重试），退避 1s、2s
	MaxAttempts = 3
	BackoffBase = time.Second
)

var (
	enqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_events_enqueued_total", Help: "Lifecycle events submitted to the queue"},
		[]string{"type", "result"},
	)
	processedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_events_processed_total", Help: "Lifecycle events handled by the worker"},
		[]string{"type", "result"},
	)
)

func init() { prometheus.MustRegister(enqueuedTotal, processedTotal) }

type RedisOpts struct {
	Addr     string
	Password string
	DB       int
}

func (o RedisOpts) asynq() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: o.Addr, Password: o.Password, DB: o.DB}
}

// RetryDelay 指数退避：第 n 次重试（从 0 计）等待 base * 2^n
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > 16 {
		n = 16
	}
	return BackoffBase << uint(n)
}
