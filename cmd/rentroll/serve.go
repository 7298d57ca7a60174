package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	appcli "rentroll/internal/cli"
	"rentroll/internal/config"
	apphttp "rentroll/internal/http"
	"rentroll/internal/log"
	"rentroll/internal/services"
)

const shutdownTimeout = 30 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the JSON API server",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Usage:   "Listen port",
				Value:   "8081",
				Sources: cli.EnvVars("PORT"),
			},
		},
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Load()
	cfg.Port = cmd.String("port")

	logger := appcli.SetupLogger(cfg.LogLevel, log.ComponentApp)
	if err := cfg.Validate(); err != nil {
		return err
	}

	baseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The seed watcher fires from its own goroutine, possibly before the
	// server exists.
	var current atomic.Pointer[apphttp.Server]
	res, err := appcli.InitBackend(baseCtx, logger, cfg, func() {
		if srv := current.Load(); srv != nil {
			srv.InvalidateProjections()
		}
	})
	if err != nil {
		return fmt.Errorf("init backend: %w", err)
	}

	svc := services.NewPortfolioService(res.Store, logger.WithComponent(log.ComponentProjection).Slog())
	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		Service:            svc,
		Logger:             logger,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
		ProjectionMonths:   cfg.ProjectionMonths,
		Ready:              res.Ping,
	})
	current.Store(srv)

	shutdownCtx, done := appcli.GracefulShutdown(logger, shutdownTimeout, func() {
		stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting rentroll server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
		return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
	}

	appcli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
	return nil
}
