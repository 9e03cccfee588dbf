package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/robalyx/warden/internal/export"
	"github.com/robalyx/warden/internal/setup"
	"github.com/robalyx/warden/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

const (
	// ExportLogDir specifies where export log files are stored.
	ExportLogDir = "logs/export_logs"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cmd := &cli.Command{
		Name:  "export",
		Usage: "Archive closed tickets, transcripts and log records to SQLite",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "exports",
				Usage:   "Output directory for archive files",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := setup.InitializeApp(ctx, telemetry.ServiceExport, ExportLogDir, setup.Options{})
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Cleanup(ctx)

			manifest, err := export.New(app.DB, c.String("out"), app.Logger).Export(ctx)
			if err != nil {
				return fmt.Errorf("failed to export data: %w", err)
			}

			fmt.Printf("Wrote %s (%d tickets, %d transcripts, %d log records)\n",
				manifest.Database, manifest.Tickets, manifest.Transcripts, manifest.Logs)

			return nil
		},
	}

	return cmd.Run(context.Background(), os.Args)
}
