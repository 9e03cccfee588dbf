package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// LogSettingModel handles the per-guild log channel settings.
type LogSettingModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewLogSetting creates a LogSettingModel with database access.
func NewLogSetting(db *bun.DB, logger *zap.Logger) *LogSettingModel {
	return &LogSettingModel{
		db:     db,
		logger: logger.Named("db_log_setting"),
	}
}

// Get returns the settings row for a guild, or nil if the guild has none.
func (r *LogSettingModel) Get(ctx context.Context, guildID snowflake.ID) (*types.GuildLogSettings, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.GuildLogSettings, error) {
		settings := &types.GuildLogSettings{GuildID: guildID}
		err := r.db.NewSelect().
			Model(settings).
			WherePK().
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to get log settings: %w (guildID=%d)", err, guildID)
		}

		return settings, nil
	})
}

// GetLogChannel returns the configured log channel for a guild.
func (r *LogSettingModel) GetLogChannel(ctx context.Context, guildID snowflake.ID) (snowflake.ID, bool, error) {
	settings, err := r.Get(ctx, guildID)
	if err != nil {
		return 0, false, err
	}

	if settings == nil || !settings.IsSetup || settings.ChannelID == 0 {
		return 0, false, nil
	}

	return settings.ChannelID, true, nil
}

// Setup stores the log category and channel for a guild. It fails with
// ErrLogsAlreadyConfigured if the guild is already set up; the existing row
// is left untouched in that case.
func (r *LogSettingModel) Setup(ctx context.Context, guildID, categoryID, channelID snowflake.ID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		settings := &types.GuildLogSettings{
			GuildID:    guildID,
			IsSetup:    true,
			CategoryID: categoryID,
			ChannelID:  channelID,
		}

		result, err := r.db.NewInsert().
			Model(settings).
			On("CONFLICT (guild_id) DO UPDATE").
			Set("is_setup = EXCLUDED.is_setup").
			Set("category_id = EXCLUDED.category_id").
			Set("channel_id = EXCLUDED.channel_id").
			Where("is_setup = ?", false).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save log settings: %w (guildID=%d)", err, guildID)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		if affected == 0 {
			return types.ErrLogsAlreadyConfigured
		}

		r.logger.Info("Configured log channel",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Uint64("channelID", uint64(channelID)))

		return nil
	})
}
