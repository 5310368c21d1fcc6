package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"go-gin-auth-service/internal/core/auth"
	"go-gin-auth-service/internal/core/config"
	"go-gin-auth-service/internal/core/database"
	"go-gin-auth-service/internal/core/events"
	"go-gin-auth-service/internal/core/logger"
	"go-gin-auth-service/internal/core/redisx"
	"go-gin-auth-service/internal/core/server"
	"go-gin-auth-service/internal/repo"
	"go-gin-auth-service/internal/service"
	"go-gin-auth-service/internal/transport/http/handler"
	mdw "go-gin-auth-service/internal/transport/http/middleware"
	"go-gin-auth-service/internal/transport/http/router"
	"go-gin-auth-service/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, cleanup := logger.NewWithFile(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File)
	defer cleanup()
	restoreStd := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer restoreStd()

	prod := cfg.IsProduction()
	if prod {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	users := repo.NewUserRepo(db)
	if cfg.DB.AutoMigrate {
		if err := users.Migrate(context.Background()); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	hasher, err := utils.NewBcryptHasher(cfg.Auth.SaltRounds)
	if err != nil {
		log.Fatal("password hasher", zap.Error(err))
	}
	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.SessionTTL,
	}

	// 事件：入队走 redis，消费默认在 cmd/worker
	ro := events.RedisOpts{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	pub := events.NewPublisher(ro)
	defer pub.Close()

	var worker *events.Worker
	if cfg.Events.InProcess {
		worker = events.NewWorker(ro, cfg.Events.Concurrency, log.Named("events"))
		if err := worker.Start(); err != nil {
			log.Fatal("event worker start", zap.Error(err))
		}
		log.Info("event worker started in-process")
	}

	rdb := redisx.New(redisx.Opts{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()

	health := handler.NewHealth(2*time.Second).
		Add("db", func(ctx context.Context) error { return database.Ping(ctx, db) }).
		Add("redis", redisx.Pinger{RDB: rdb}.Ping)

	svc := service.NewAuthService(users, hasher, jwter, pub, log.Named("auth"))
	authH := handler.NewAuthHandler(svc, handler.DefaultCookieOpts(prod, jwter.TTL), !prod,
		mdw.RateLimitPerIP(5, 20, 10*time.Minute))

	r := router.NewAPIEngine(log, router.Deps{
		Health:      health,
		Modules:     []router.APIModule{authH},
		CORSOrigins: cfg.App.HTTP.CORSOrigins,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("auth api starting",
		zap.String("env", cfg.App.Env),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+router.APIPrefix),
	)

	go func() {
		if err := server.StartHTTP(srv, log); err != nil {
			log.Fatal("auth api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}
	log.Info("auth api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		LogWriter:          logger.ToWriter(l.Named("gorm"), zapcore.InfoLevel),
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
