package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		tables := []struct {
			model      any
			foreignKey string
		}{
			{(*types.LogRecord)(nil), ""},
			{(*types.GuildLogSettings)(nil), ""},
			{(*types.TicketConfig)(nil), ""},
			{(*types.Ticket)(nil), ""},
			{(*types.TicketMessage)(nil), "(ticket_id) REFERENCES tickets (id) ON DELETE CASCADE"},
			{(*types.Transcript)(nil), "(ticket_id) REFERENCES tickets (id) ON DELETE CASCADE"},
			{(*types.TicketTopic)(nil), ""},
		}

		for _, table := range tables {
			query := db.NewCreateTable().
				Model(table.model).
				IfNotExists()

			if table.foreignKey != "" {
				query = query.ForeignKey(table.foreignKey)
			}

			if _, err := query.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table for %T: %w", table.model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, model := range []any{
			(*types.TicketTopic)(nil),
			(*types.Transcript)(nil),
			(*types.TicketMessage)(nil),
			(*types.Ticket)(nil),
			(*types.TicketConfig)(nil),
			(*types.GuildLogSettings)(nil),
			(*types.LogRecord)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table for %T: %w", model, err)
			}
		}

		return nil
	})
}
