package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-gin-auth-service/internal/core/config"
	"go-gin-auth-service/internal/core/events"
	"go-gin-auth-service/internal/core/logger"
)

// 独立的事件消费进程；asynq 自己处理 SIGINT/SIGTERM
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.NewWithFile(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File)
	defer cleanup()

	ro := events.RedisOpts{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	w := events.NewWorker(ro, cfg.Events.Concurrency, log.Named("events"))

	log.Info("event worker starting",
		zap.String("redis", cfg.Redis.Addr),
		zap.String("queue", events.Queue),
		zap.Int("concurrency", cfg.Events.Concurrency),
	)
	if err := w.Run(); err != nil {
		log.Fatal("event worker stopped", zap.Error(err))
	}
	log.Info("event worker stopped")
}
