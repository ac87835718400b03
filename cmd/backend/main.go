// Package main provides the entry point for the shortlink backend service.
package main

import (
	"context"
	"fmt"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shortlink-backend/internal/analytics"
	"shortlink-backend/internal/cache"
	"shortlink-backend/internal/config"
	"shortlink-backend/internal/database"
	httpHandler "shortlink-backend/internal/handler/http"
	"shortlink-backend/internal/ratelimit"
	"shortlink-backend/internal/repository/postgres"
	"shortlink-backend/internal/service"
	"shortlink-backend/pkg/logger"
	"shortlink-backend/pkg/useragent"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting shortlink backend", zap.String("env", cfg.Env))

	// Database
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	// User-Agent parser for device type analytics; the keyword fallback
	// covers a missing regexes file.
	if err := useragent.InitGlobalParser("assets/regexes.yaml", log); err != nil {
		log.Warn("failed to initialize User-Agent parser, using fallback", zap.Error(err))
	}

	storage := postgres.New(db, log)

	// Resolution cache: Redis when configured, in-process otherwise.
	var linkCache cache.Cache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Error("failed to close redis client", zap.Error(err))
			}
		}()
		linkCache = cache.NewRedis(client, log)
		log.Info("using redis resolution cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		linkCache = cache.NewMemory(log)
		log.Info("using in-process resolution cache")
	}

	// Access event pipeline
	pipelineCfg := analytics.DefaultConfig()
	pipelineCfg.QueueCapacity = cfg.Pipeline.QueueCapacity
	pipelineCfg.ShutdownTimeout = cfg.Pipeline.ShutdownTimeout
	pipeline := analytics.New(storage, log, pipelineCfg)
	if err := pipeline.Start(); err != nil {
		log.Fatal("failed to start access event pipeline", zap.Error(err))
	}

	// Core services
	registration := service.NewRegistration(storage, log)
	redirect := service.NewRedirect(storage, linkCache, pipeline, cfg.Cache.TTL, log)
	stats := service.NewStats(storage, storage, log)
	limiter := ratelimit.NewRegistry()

	server := httpHandler.NewServer(
		storage,
		registration,
		redirect,
		stats,
		limiter,
		cfg.RateLimit.Limit,
		cfg.RateLimit.Window,
		log,
		cfg.Shortener.BaseURL,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPServer.Port),
		Handler:      server.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down shortlink backend...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Pipeline.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	// Stop accepting events and drain what is queued before the DB closes.
	if err := pipeline.Stop(); err != nil {
		log.Error("failed to stop access event pipeline", zap.Error(err))
	}
}
