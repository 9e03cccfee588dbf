package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MigrationCommands returns the schema management commands.
func MigrationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "migrate",
			Usage:  "Apply pending schema migrations",
			Action: handleMigrate(deps),
		},
		{
			Name:  "rollback",
			Usage: "Revert the last applied migration group",
			Description: `Revert the most recent migration group. Reverting the initial group drops
every ticket, transcript and log table, so the command refuses to run without --yes.
Stop the bot first: SQLite rejects schema changes while another process holds the file.`,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "yes",
					Usage: "Confirm the rollback",
				},
			},
			Action: handleRollback(deps),
		},
		{
			Name:   "status",
			Usage:  "List applied and pending migrations",
			Action: handleStatus(deps),
		},
		{
			Name:      "create",
			Usage:     "Create a new Go migration file",
			ArgsUsage: "NAME",
			Action:    handleCreate(deps),
		},
	}
}

// handleMigrate handles the 'migrate' command.
func handleMigrate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		return withMigrationLock(ctx, deps.Migrator, func() error {
			group, err := deps.Migrator.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}

			if group.IsZero() {
				deps.Logger.Info("Schema is up to date")
				return nil
			}

			for _, m := range group.Migrations {
				deps.Logger.Info("Applied migration", zap.String("name", migrationLabel(m)))
			}
			deps.Logger.Info("Migration group applied", zap.Int64("group", group.ID))

			return nil
		})
	}
}

// handleRollback handles the 'rollback' command.
func handleRollback(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if !c.Bool("yes") {
			return ErrConfirmRequired
		}

		return withMigrationLock(ctx, deps.Migrator, func() error {
			group, err := deps.Migrator.Rollback(ctx)
			if err != nil {
				return fmt.Errorf("failed to roll back migrations: %w", err)
			}

			if group.IsZero() {
				deps.Logger.Info("No migration group to roll back")
				return nil
			}

			for _, m := range group.Migrations {
				deps.Logger.Info("Reverted migration", zap.String("name", migrationLabel(m)))
			}
			deps.Logger.Info("Migration group rolled back", zap.Int64("group", group.ID))

			return nil
		})
	}
}

// handleStatus handles the 'status' command.
func handleStatus(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to create migration tables: %w", err)
		}

		ms, err := deps.Migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}

		return writeMigrationStatus(os.Stdout, ms)
	}
}

// handleCreate handles the 'create' command.
func handleCreate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrNameRequired
		}

		mf, err := deps.Migrator.CreateGoMigration(ctx, c.Args().First())
		if err != nil {
			return err
		}

		deps.Logger.Info("Created Go migration",
			zap.String("name", mf.Name),
			zap.String("path", mf.Path))

		return nil
	}
}

// withMigrationLock creates the bookkeeping tables and runs fn while holding
// the migration lock.
func withMigrationLock(ctx context.Context, migrator *migrate.Migrator, fn func() error) error {
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to create migration tables: %w", err)
	}

	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationLocked, err)
	}
	defer migrator.Unlock(ctx) //nolint:errcheck // -

	return fn()
}

// writeMigrationStatus prints one line per known migration followed by totals.
func writeMigrationStatus(w io.Writer, ms migrate.MigrationSlice) error {
	if len(ms) == 0 {
		_, err := fmt.Fprintln(w, "No migrations registered")
		return err
	}

	var pending int
	for _, m := range ms {
		var line string
		if m.GroupID != 0 {
			line = fmt.Sprintf("applied  group=%d %s at %s",
				m.GroupID, migrationLabel(m), m.MigratedAt.UTC().Format("2006-01-02 15:04:05"))
		} else {
			pending++
			line = "pending  " + migrationLabel(m)
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%d applied, %d pending\n", len(ms)-pending, pending)
	return err
}

func migrationLabel(m migrate.Migration) string {
	if m.Comment == "" {
		return m.Name
	}
	return m.Name + "_" + m.Comment
}
