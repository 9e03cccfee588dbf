package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/robalyx/warden/cmd/db/commands"
	"github.com/robalyx/warden/internal/setup"
	"github.com/robalyx/warden/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

const (
	// DBLogDir specifies where database tool log files are stored.
	DBLogDir = "logs/db_logs"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Migrations are driven explicitly by the commands below
	app, err := setup.InitializeApp(ctx, telemetry.ServiceDB, DBLogDir, setup.Options{})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	deps := &commands.CLIDependencies{
		DB:       app.DB,
		Migrator: app.DB.Migrator(),
		Logger:   app.Logger,
	}

	cmd := &cli.Command{
		Name:  "db",
		Usage: "Database management tool",
		Commands: slices.Concat(
			commands.MigrationCommands(deps),
			commands.LogCommands(deps),
		),
	}

	return cmd.Run(ctx, os.Args)
}
