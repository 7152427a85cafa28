package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"chatshot/internal/browser"
	"chatshot/internal/config"
	"chatshot/internal/pkg/logger"
	"chatshot/internal/pkg/shutdown"
	"chatshot/internal/render"
	"chatshot/internal/sink"
	"chatshot/internal/storage"
	"chatshot/internal/worker"
)

func main() {
	_ = godotenv.Load()

	log := logger.New(logger.Config{
		Level:       config.Env("LOG_LEVEL", "info"),
		Format:      config.Env("LOG_FORMAT", "json"),
		ServiceName: "chatshot-worker",
		AddSource:   config.BoolEnv("LOG_SOURCE", false),
	})

	log.Info("starting chatshot worker")

	cfg, err := config.Load()
	if err != nil {
		log.LogFatal("invalid configuration", err)
	}

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}
	log.Info("Redis connected", "addr", cfg.RedisAddr)

	var provider storage.Provider
	if cfg.UploadMode {
		provider, err = storage.NewProvider(cfg)
		if err != nil {
			log.LogFatal("failed to initialize storage provider", err)
		}
		log.Info("storage provider initialized", "provider", provider.Provider())
	}
	snk := sink.New(provider, cfg.UploadMode, log)

	pool := browser.NewPool(browser.NewRodEngine(), cfg.MaxPooled, log)
	shutdownMgr.Register("browser-pool", func(ctx context.Context) error {
		pool.Drain()
		return nil
	})

	svc := render.NewService(cfg,
		render.NewAdmission(cfg.MaxConcurrent),
		pool,
		render.NewRenderer(log),
		snk,
		log,
	)

	// The run loop stops when this context is canceled at shutdown.
	runCtx, cancel := context.WithCancel(context.Background())
	shutdownMgr.Register("worker-loop", func(ctx context.Context) error {
		cancel()
		return nil
	})

	go func() {
		err := worker.Run(runCtx, worker.Deps{
			RDB:       rdb,
			Service:   svc,
			QueueName: cfg.QueueName,
			Log:       log,
		})
		if err != nil && runCtx.Err() == nil {
			log.LogFatal("worker loop failed", err)
		}
	}()

	log.Info("worker consuming",
		"queue", cfg.QueueName,
		"max_concurrent", cfg.MaxConcurrent,
	)
	shutdownMgr.Wait()
}
