package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"chatshot/internal/browser"
	"chatshot/internal/config"
	"chatshot/internal/httpapi"
	"chatshot/internal/pkg/logger"
	"chatshot/internal/pkg/shutdown"
	"chatshot/internal/render"
	"chatshot/internal/sink"
	"chatshot/internal/storage"
)

func main() {
	_ = godotenv.Load()

	log := logger.New(logger.Config{
		Level:       config.Env("LOG_LEVEL", "info"),
		Format:      config.Env("LOG_FORMAT", "json"),
		ServiceName: "chatshot-api",
		AddSource:   config.BoolEnv("LOG_SOURCE", false),
	})

	log.Info("starting chatshot API",
		"version", "0.1.0",
	)

	cfg, err := config.Load()
	if err != nil {
		log.LogFatal("invalid configuration", err)
	}

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Storage provider is only needed when uploads are on.
	var provider storage.Provider
	if cfg.UploadMode {
		log.Info("initializing storage provider")
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

	router := httpapi.NewRouter(httpapi.Deps{
		Service: svc,
		Sink:    snk,
		Log:     log,
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		// Renders can queue behind the admission cap; give responses room.
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
			"chat_app", cfg.ChatAppURL,
			"max_concurrent", cfg.MaxConcurrent,
			"max_pooled", cfg.MaxPooled,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}
