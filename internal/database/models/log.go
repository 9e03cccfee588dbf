package models

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// LogModel handles the append-only audit log.
type LogModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewLog creates a LogModel with database access.
func NewLog(db *bun.DB, logger *zap.Logger) *LogModel {
	return &LogModel{
		db:     db,
		logger: logger.Named("db_log"),
	}
}

// Append inserts a log record and returns its id. A zero timestamp is
// replaced with the current time. Records are always stored in UTC.
func (r *LogModel) Append(ctx context.Context, record *types.LogRecord) (int64, error) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	record.Timestamp = record.Timestamp.UTC()

	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		_, err := r.db.NewInsert().
			Model(record).
			Returning("id").
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to append log record: %w (guildID=%d, action=%s)",
				err, record.GuildID, record.Action)
		}

		r.logger.Debug("Appended log record",
			zap.Int64("id", record.ID),
			zap.Uint64("guildID", uint64(record.GuildID)),
			zap.String("action", record.Action.String()))

		return record.ID, nil
	})
}

// QueryByUser returns every record whose acting user is userID, in id order.
func (r *LogModel) QueryByUser(ctx context.Context, userID snowflake.ID) ([]*types.LogRecord, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.LogRecord, error) {
		var records []*types.LogRecord
		err := r.db.NewSelect().
			Model(&records).
			Where("user_id = ?", userID).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query logs by user: %w (userID=%d)", err, userID)
		}

		return records, nil
	})
}

// QueryRecentByUser returns the latest limit records for userID in a guild,
// newest first.
func (r *LogModel) QueryRecentByUser(
	ctx context.Context, guildID, userID snowflake.ID, limit int,
) ([]*types.LogRecord, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.LogRecord, error) {
		var records []*types.LogRecord
		err := r.db.NewSelect().
			Model(&records).
			Where("guild_id = ?", guildID).
			WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("user_id = ?", userID).WhereOr("user_actioned_id = ?", userID)
			}).
			Order("id DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query recent logs: %w (guildID=%d, userID=%d)", err, guildID, userID)
		}

		return records, nil
	})
}

// QueryAll returns every record in id order.
func (r *LogModel) QueryAll(ctx context.Context) ([]*types.LogRecord, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.LogRecord, error) {
		var records []*types.LogRecord
		err := r.db.NewSelect().
			Model(&records).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query logs: %w", err)
		}

		return records, nil
	})
}
