package main

import (
	"context"
	"os"
	"time"

	"rentroll/internal/amqp"
	"rentroll/internal/cache"
	appcli "rentroll/internal/cli"
	"rentroll/internal/config"
	"rentroll/internal/log"
	"rentroll/internal/scheduler"
	"rentroll/internal/services"
	"rentroll/internal/worker"
)

const (
	seenCacheSize   = 10000
	seenTTL         = 7 * 24 * time.Hour
	cleanupInterval = time.Hour
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	appcli.LoadEnvFile()

	cfg := config.Load()
	logger := appcli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting alert-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := appcli.InitBackend(ctx, logger, cfg, nil)
	appcli.Must(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)

	// Without a broker, alerts are logged and treated as delivered.
	var publisher services.AlertPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, alerts will only be logged", log.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("AMQP client initialized - alerts will reach alert-sink")
		}
	} else {
		logger.Info("AMQP disabled - alerts will only be logged")
	}

	svc := services.NewPortfolioService(res.Store, logger.WithComponent(log.ComponentAlerts).Slog())
	notifier := services.NewAlertNotifier(publisher, logger)

	seen := cache.NewLRUCache[struct{}](seenCacheSize, seenTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(seen)
	cacheManager.StartCleanup(cleanupInterval)

	scanWorker := worker.NewAlertWorker(svc, notifier, seen, logger)

	sched := scheduler.New(ctx, logger)
	appcli.Must(logger, "Failed to schedule alert scan", sched.AddJob(cfg.ScanSchedule, scanWorker),
		"schedule", cfg.ScanSchedule)

	// Run initial scan on startup
	logger.Info("Running initial alert scan...")
	if err := sched.RunNow(scanWorker); err != nil {
		logger.Error("Initial scan failed", log.FieldError, err)
	}

	sched.Start()
	logger.Info("Alert scan scheduled", "schedule", cfg.ScanSchedule, "advance_notice_days", cfg.AlertAdvanceNoticeDays)

	shutdownCtx, done := appcli.GracefulShutdown(logger, shutdownTimeout, func() {
		logger.Info("Shutting down alert-worker...")
		sched.Stop()
		cancel()
		cacheManager.Stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}
	})
	appcli.WaitForShutdown(shutdownCtx, done)
}
