package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Opts struct {
	Addr     string
	Password string
	DB       int
}

func New(o Opts) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Pinger 就绪检查用
type Pinger struct{ RDB redis.UniversalClient }

func (p Pinger) Ping(ctx context.Context) error {
	return p.RDB.Ping(ctx).Err()
}
