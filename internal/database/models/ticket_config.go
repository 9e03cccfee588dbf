package models

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TicketConfigModel handles the per-guild ticket configuration.
type TicketConfigModel struct {
	db     *bun.DB
	logger *zap.Logger
	group  singleflight.Group
}

// NewTicketConfig creates a TicketConfigModel with database access.
func NewTicketConfig(db *bun.DB, logger *zap.Logger) *TicketConfigModel {
	return &TicketConfigModel{
		db:     db,
		logger: logger.Named("db_ticket_config"),
	}
}

// Get returns the configuration for a guild, creating the default row on
// first access. Concurrent first reads insert at most one row.
func (r *TicketConfigModel) Get(ctx context.Context, guildID snowflake.ID) (*types.TicketConfig, error) {
	v, err, _ := r.group.Do(guildID.String(), func() (any, error) {
		return r.load(ctx, guildID)
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing a flight must not see each other's edits
	config := *v.(*types.TicketConfig)
	return &config, nil
}

// Update applies the non-nil fields of update to the guild's configuration.
// A zero ID clears the field.
func (r *TicketConfigModel) Update(
	ctx context.Context, guildID snowflake.ID, update types.TicketConfigUpdate,
) (*types.TicketConfig, error) {
	if _, err := r.load(ctx, guildID); err != nil {
		return nil, err
	}

	if !update.IsEmpty() {
		err := dbretry.NoResult(ctx, func(ctx context.Context) error {
			query := r.db.NewUpdate().
				Model((*types.TicketConfig)(nil)).
				Where("guild_id = ?", guildID)

			setID := func(column string, id *snowflake.ID) {
				if id == nil {
					return
				}
				if *id == 0 {
					query = query.Set(column + " = NULL")
					return
				}
				query = query.Set(column+" = ?", *id)
			}

			setID("category_id", update.CategoryID)
			setID("create_channel_id", update.CreateChannelID)
			setID("create_message_id", update.CreateMessageID)
			setID("log_channel_id", update.LogChannelID)
			setID("support_role_id", update.SupportRoleID)

			if update.MaxTicketsPerUser != nil {
				query = query.Set("max_tickets_per_user = ?", *update.MaxTicketsPerUser)
			}
			if update.TicketCooldown != nil {
				query = query.Set("ticket_cooldown = ?", *update.TicketCooldown)
			}
			if update.RequireTopic != nil {
				query = query.Set("require_topic = ?", *update.RequireTopic)
			}
			if update.AutoCloseHours != nil {
				query = query.Set("auto_close_hours = ?", *update.AutoCloseHours)
			}
			if update.WelcomeMessage != nil {
				query = query.Set("welcome_message = ?", *update.WelcomeMessage)
			}
			if update.TicketTypes != nil {
				query = query.Set("ticket_types = ?", types.FormatTicketTypes(update.TicketTypes))
			}

			if _, err := query.Exec(ctx); err != nil {
				return fmt.Errorf("failed to update ticket config: %w (guildID=%d)", err, guildID)
			}

			return nil
		})
		if err != nil {
			return nil, err
		}

		r.logger.Debug("Updated ticket config", zap.Uint64("guildID", uint64(guildID)))
	}

	return r.load(ctx, guildID)
}

// load upserts the default row and reads the current configuration.
func (r *TicketConfigModel) load(ctx context.Context, guildID snowflake.ID) (*types.TicketConfig, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.TicketConfig, error) {
		_, err := r.db.NewInsert().
			Model(types.NewTicketConfig(guildID)).
			On("CONFLICT (guild_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create ticket config: %w (guildID=%d)", err, guildID)
		}

		config := &types.TicketConfig{GuildID: guildID}
		err = r.db.NewSelect().
			Model(config).
			WherePK().
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get ticket config: %w (guildID=%d)", err, guildID)
		}

		return config, nil
	})
}
