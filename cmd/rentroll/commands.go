package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"rentroll/internal/alerts"
	"rentroll/internal/amqp"
	"rentroll/internal/cache"
	appcli "rentroll/internal/cli"
	"rentroll/internal/config"
	"rentroll/internal/core"
	"rentroll/internal/log"
	"rentroll/internal/projection"
	"rentroll/internal/services"
	gsheet "rentroll/internal/sheets/google"
	"rentroll/internal/worker"
)

var asOfFlag = &cli.StringFlag{
	Name:  "as-of",
	Usage: "Reference date (YYYY-MM-DD); defaults to today",
}

func projectCommand() *cli.Command {
	return &cli.Command{
		Name:   "project",
		Usage:  "Print the monthly income projection as JSON",
		Action: project,
		Flags: []cli.Flag{
			asOfFlag,
			&cli.IntFlag{
				Name:  "months",
				Usage: "Number of months in the series; defaults to PROJECTION_MONTHS",
			},
			&cli.BoolFlag{
				Name:  "escalations",
				Usage: "Apply scheduled rent escalations",
			},
		},
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:   "scan",
		Usage:  "Print current alerts as JSON, or publish them once with --publish",
		Action: scan,
		Flags: []cli.Flag{
			asOfFlag,
			&cli.BoolFlag{
				Name:  "publish",
				Usage: "Publish alerts to AMQP instead of printing them",
			},
		},
	}
}

func importSheetCommand() *cli.Command {
	return &cli.Command{
		Name:   "import-sheet",
		Usage:  "Import tenants from the Google Sheets rent roll",
		Action: importSheet,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print parsed tenants without saving them",
			},
		},
	}
}

// openService loads config, logs to stderr and opens the configured store.
// The returned cleanup closes the store.
func openService(ctx context.Context, component string) (*config.Config, *log.Logger, *services.PortfolioService, func(), error) {
	cfg := config.Load()
	logger := appcli.SetupLoggerTo(os.Stderr, cfg.LogLevel, component)
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}
	cfg.WatchSeed = false

	res, err := appcli.InitBackend(ctx, logger, cfg, nil)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init backend: %w", err)
	}
	cleanup := func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}
	}
	svc := services.NewPortfolioService(res.Store, logger.Slog())
	return cfg, logger, svc, cleanup, nil
}

func project(ctx context.Context, cmd *cli.Command) error {
	asOf, err := parseAsOf(cmd.String("as-of"))
	if err != nil {
		return err
	}
	cfg, _, svc, cleanup, err := openService(ctx, log.ComponentProjection)
	if err != nil {
		return err
	}
	defer cleanup()

	months := int(cmd.Int("months"))
	if months == 0 {
		months = cfg.ProjectionMonths
	}
	if months < 1 || months > 120 {
		return fmt.Errorf("months must be between 1 and 120, got %d", months)
	}

	res, err := svc.Projection(ctx, months, asOf, projection.Options{ApplyEscalations: cmd.Bool("escalations")})
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, res)
}

func scan(ctx context.Context, cmd *cli.Command) error {
	asOf, err := parseAsOf(cmd.String("as-of"))
	if err != nil {
		return err
	}
	cfg, logger, svc, cleanup, err := openService(ctx, log.ComponentAlerts)
	if err != nil {
		return err
	}
	defer cleanup()

	if !cmd.Bool("publish") {
		list, err := svc.Alerts(ctx, asOf)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, struct {
			AsOf   core.Date               `json:"asOf"`
			Alerts []alerts.Alert          `json:"alerts"`
			Counts map[alerts.Priority]int `json:"counts"`
		}{core.DateOf(asOf), list, alerts.CountByPriority(list)})
	}

	if !cfg.AMQPEnabled() {
		return fmt.Errorf("--publish requires AMQP_URL")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect AMQP: %w", err)
	}
	defer client.Close()

	// A one-shot scan has no history, so every alert is new.
	seen := cache.NewLRUCache[struct{}](seenCacheSize, time.Hour)
	w := worker.NewAlertWorker(svc, services.NewAlertNotifier(client, logger), seen, logger,
		worker.WithClock(func() time.Time { return asOf }))
	result, err := w.ScanOnce(ctx)
	fmt.Fprintf(os.Stdout, "scanned %d alerts: %d published, %d failed\n", result.Total, result.Published, result.Failed)
	return err
}

func importSheet(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, svc, cleanup, err := openService(ctx, log.ComponentSheets)
	if err != nil {
		return err
	}
	defer cleanup()

	client, err := gsheet.NewClient(ctx, gsheet.Config{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		AlertsSheet:   cfg.GoogleAlertsSheet,
		RentRollSheet: cfg.GoogleRentRollSheet,
	})
	if err != nil {
		return fmt.Errorf("google sheets: %w", err)
	}

	tenants, err := client.ReadRentRoll(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("dry-run") {
		return printJSON(os.Stdout, tenants)
	}

	n, err := svc.ImportTenants(ctx, tenants)
	if err != nil {
		return fmt.Errorf("imported %d of %d tenants: %w", n, len(tenants), err)
	}
	logger.Info("Rent roll imported", log.FieldTenantCount, n, log.FieldOperation, log.OpImport)
	fmt.Fprintf(os.Stdout, "imported %d tenants\n", n)
	return nil
}

const seenCacheSize = 10000

func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of: %w", err)
	}
	return d.Time, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sheetsAuthCommand() *cli.Command {
	return &cli.Command{
		Name:   "sheets-auth",
		Usage:  "Authorize Google Sheets access with an OAuth client and save the token",
		Action: sheetsAuth,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "redirect-port",
				Usage:   "Local port for the OAuth redirect",
				Value:   "8085",
				Sources: cli.EnvVars("OAUTH_REDIRECT_PORT"),
			},
		},
	}
}

func sheetsAuth(ctx context.Context, cmd *cli.Command) error {
	oauthCfg, err := gsheet.OAuthConfigFromEnv()
	if err != nil {
		return err
	}
	tok, err := gsheet.Authorize(ctx, oauthCfg, cmd.String("redirect-port"), os.Stdout)
	if err != nil {
		return err
	}
	out := gsheet.TokenFile()
	if err := gsheet.SaveToken(out, tok); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Saved token to %s\n", out)
	return nil
}
