// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/compliance/cmd/app/commands"
	"github.com/allisson/compliance/internal/config"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Audit trail and role-authorization service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
					return commands.RunMigrations(logger, cfg.DBDriver, cfg.DBConnectionString)
				},
			},
			{
				Name:  "seed-catalog",
				Usage: "Seed the system permissions and default role grants",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSeedCatalog(ctx)
				},
			},
			{
				Name:  "clean-audit-entries",
				Usage: "Delete audit entries older than the retention window",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Value:   365,
						Usage:   "Retention window in days",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Value: false,
						Usage: "Only report how many entries would be deleted",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format (text or json)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCleanAuditEntries(
						ctx,
						int(cmd.Int("days")),
						cmd.Bool("dry-run"),
						cmd.String("format"),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
