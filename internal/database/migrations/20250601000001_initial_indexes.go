package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			// One live channel per open ticket
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_open_channel
			 ON tickets (channel_id) WHERE status = 'open'`,

			// Open ticket count per author
			`CREATE INDEX IF NOT EXISTS idx_tickets_guild_author_status
			 ON tickets (guild_id, author_id, status)`,

			`CREATE INDEX IF NOT EXISTS idx_transcripts_ticket_id
			 ON transcripts (ticket_id)`,

			`CREATE INDEX IF NOT EXISTS idx_logs_user_id
			 ON logs (user_id)`,

			`CREATE INDEX IF NOT EXISTS idx_logs_guild_id
			 ON logs (guild_id)`,
		}

		for _, stmt := range indexes {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, name := range []string{
			"idx_tickets_open_channel",
			"idx_tickets_guild_author_status",
			"idx_transcripts_ticket_id",
			"idx_logs_user_id",
			"idx_logs_guild_id",
		} {
			if _, err := db.ExecContext(ctx, "DROP INDEX IF EXISTS "+name); err != nil {
				return fmt.Errorf("failed to drop index %s: %w", name, err)
			}
		}

		return nil
	})
}
