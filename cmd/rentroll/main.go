package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	appcli "rentroll/internal/cli"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	appcli.LoadEnvFile()

	cmd := &cli.Command{
		Name:  "rentroll",
		Usage: "Rent roll income projections and lease alerts",
		Commands: []*cli.Command{
			serveCommand(),
			projectCommand(),
			scanCommand(),
			importSheetCommand(),
			sheetsAuthCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
