package main

import (
	"context"
	"errors"
	"os"
	"time"

	"rentroll/internal/amqp"
	"rentroll/internal/cache"
	appcli "rentroll/internal/cli"
	"rentroll/internal/config"
	"rentroll/internal/log"
	gsheet "rentroll/internal/sheets/google"
	"rentroll/internal/worker"
)

const (
	writtenCacheSize = 10000
	writtenTTL       = 24 * time.Hour
	cleanupInterval  = time.Hour
	shutdownTimeout  = 30 * time.Second
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	appcli.LoadEnvFile()

	cfg := config.Load()
	logger := appcli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting alert-sink")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() {
		logger.Error("alert-sink requires AMQP_URL")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sheetsClient, err := gsheet.NewClient(ctx, gsheet.Config{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		AlertsSheet:   cfg.GoogleAlertsSheet,
		RentRollSheet: cfg.GoogleRentRollSheet,
	})
	appcli.Must(logger, "Failed to initialize Google Sheets client", err)
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	appcli.Must(logger, "Failed to initialize AMQP client", err)

	written := cache.NewLRUCache[string](writtenCacheSize, writtenTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(written)
	cacheManager.StartCleanup(cleanupInterval)

	sink := worker.NewAlertSink(sheetsClient, written, logger)

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeAlerts(ctx, sink.HandleAlertMessage)
	}()

	shutdownCtx, done := appcli.GracefulShutdown(logger, shutdownTimeout, func() {
		logger.Info("Shutting down alert-sink...")
		cancel()
		cacheManager.Stop()
		_ = amqpClient.Close()
	})

	select {
	case <-shutdownCtx.Done():
		<-done
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			cancel()
			cacheManager.Stop()
			_ = amqpClient.Close()
			os.Exit(1)
		}
	}
}
