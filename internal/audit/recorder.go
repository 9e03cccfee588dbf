// Package audit persists guild events and moderator actions and mirrors them
// to each guild's log channel.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database"
	"github.com/robalyx/warden/internal/database/models"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/platform"
	"github.com/robalyx/warden/pkg/utils"
	"go.uber.org/zap"
)

// ErrAlreadyConfigured is returned when a guild already has a log channel.
var ErrAlreadyConfigured = types.ErrLogsAlreadyConfigured

const (
	logCategoryName = "📋 Logs"
	logChannelName  = "logs"
)

// Platform is the subset of the Discord adapter the recorder needs.
type Platform interface {
	SendMessage(ctx context.Context, channelID snowflake.ID, msg discord.MessageCreate) (snowflake.ID, error)
	CreateCategory(ctx context.Context, guildID snowflake.ID, spec platform.ChannelSpec) (snowflake.ID, error)
	CreateTextChannel(ctx context.Context, guildID snowflake.ID, spec platform.ChannelSpec) (snowflake.ID, error)
	DeleteChannel(ctx context.Context, channelID snowflake.ID) error
}

// Recorder writes log records and delivers their notifications.
type Recorder struct {
	logs     *models.LogModel
	settings *models.LogSettingModel
	platform Platform
	logger   *zap.Logger
	locks    *utils.KeyedMutex[snowflake.ID]
	retry    utils.RetryOptions
	now      func() time.Time
}

// NewRecorder creates a Recorder over the database and platform.
func NewRecorder(db database.Client, p Platform, logger *zap.Logger) *Recorder {
	return &Recorder{
		logs:     db.Model().Log(),
		settings: db.Model().LogSetting(),
		platform: p,
		logger:   logger.Named("audit"),
		locks:    utils.NewKeyedMutex[snowflake.ID](),
		retry:    utils.GetDeliveryRetryOptions(),
		now:      time.Now,
	}
}

// WithRetryOptions overrides the delivery retry policy.
func (r *Recorder) WithRetryOptions(opts utils.RetryOptions) *Recorder {
	r.retry = opts
	return r
}

// Append persists a record without sending a notification.
func (r *Recorder) Append(ctx context.Context, record *types.LogRecord) (int64, error) {
	return r.logs.Append(ctx, record)
}

// QueryByUser returns the records a user performed, in id order.
func (r *Recorder) QueryByUser(ctx context.Context, userID snowflake.ID) ([]*types.LogRecord, error) {
	return r.logs.QueryByUser(ctx, userID)
}

// QueryRecentByUser returns the newest records involving a user in a guild.
func (r *Recorder) QueryRecentByUser(
	ctx context.Context, guildID, userID snowflake.ID, limit int,
) ([]*types.LogRecord, error) {
	return r.logs.QueryRecentByUser(ctx, guildID, userID, limit)
}

// QueryAll returns every record in id order.
func (r *Recorder) QueryAll(ctx context.Context) ([]*types.LogRecord, error) {
	return r.logs.QueryAll(ctx)
}

// GetLogChannel returns the guild's log channel if logging is set up.
func (r *Recorder) GetLogChannel(ctx context.Context, guildID snowflake.ID) (snowflake.ID, bool, error) {
	return r.settings.GetLogChannel(ctx, guildID)
}

// SetupLogChannel stores an existing category and channel as the guild's log target.
func (r *Recorder) SetupLogChannel(ctx context.Context, guildID, categoryID, channelID snowflake.ID) error {
	return r.settings.Setup(ctx, guildID, categoryID, channelID)
}

// Record persists a record and then delivers n to the guild's log channel.
// Delivery is best-effort; only persistence errors are returned.
func (r *Recorder) Record(ctx context.Context, record *types.LogRecord, n *notify.Notification) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = r.now()
	}

	if _, err := r.logs.Append(ctx, record); err != nil {
		return err
	}

	if n != nil {
		r.Deliver(ctx, record.GuildID, n)
	}

	return nil
}

// Deliver posts a notification to the guild's log channel if one is configured.
// Failures are logged and never returned.
func (r *Recorder) Deliver(ctx context.Context, guildID snowflake.ID, n *notify.Notification) {
	channelID, ok, err := r.settings.GetLogChannel(ctx, guildID)
	if err != nil {
		r.logger.Error("Failed to look up log channel",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Error(err))
		return
	}
	if !ok {
		return
	}

	r.DeliverTo(ctx, channelID, n)
}

// DeliverTo posts a notification to a specific channel, retrying transient failures.
func (r *Recorder) DeliverTo(ctx context.Context, channelID snowflake.ID, n *notify.Notification) {
	msg := discord.NewMessageCreateBuilder().
		SetEmbeds(n.Embed()).
		Build()

	_, err := utils.WithRetry(ctx, func() (snowflake.ID, error) {
		id, err := r.platform.SendMessage(ctx, channelID, msg)
		if errors.Is(err, platform.ErrUnavailable) {
			return 0, backoff.Permanent(err)
		}
		return id, err
	}, r.retry)
	if err != nil {
		r.logger.Warn("Failed to deliver notification",
			zap.Uint64("channelID", uint64(channelID)),
			zap.String("title", n.Title),
			zap.Error(err))
	}
}

// LogModerationAction records an action a moderator took against a user.
func (r *Recorder) LogModerationAction(
	ctx context.Context, guildID, moderatorID, userID snowflake.ID, action enum.Action, reason, duration string,
) error {
	record := &types.LogRecord{
		GuildID:        guildID,
		UserID:         moderatorID,
		Action:         action,
		UserActionedID: userID,
		ModeratorID:    moderatorID,
		Reason:         reason,
		Duration:       duration,
		Timestamp:      r.now(),
	}

	n := notify.ModerationAction(action, moderatorID, userID, reason, duration, record.Timestamp)
	return r.Record(ctx, record, n)
}

// LogTicketAction records a ticket lifecycle event.
func (r *Recorder) LogTicketAction(
	ctx context.Context, guildID, userID snowflake.ID, action enum.Action, ticketID int64, extraInfo string,
) error {
	info := fmt.Sprintf("Ticket #%d", ticketID)
	if extraInfo != "" {
		info += " | " + extraInfo
	}

	record := &types.LogRecord{
		GuildID:   guildID,
		UserID:    userID,
		Action:    action,
		ExtraInfo: info,
		Timestamp: r.now(),
	}

	n := notify.TicketAction(action, userID, ticketID, extraInfo, record.Timestamp)
	return r.Record(ctx, record, n)
}

// LogTempVoiceAction records a temporary voice channel event.
func (r *Recorder) LogTempVoiceAction(
	ctx context.Context, guildID, userID snowflake.ID, action enum.Action, channelID snowflake.ID, extraInfo string,
) error {
	record := &types.LogRecord{
		GuildID:   guildID,
		UserID:    userID,
		Action:    action,
		ChannelID: channelID,
		ExtraInfo: extraInfo,
		Timestamp: r.now(),
	}

	n := notify.TempVoiceAction(action, userID, channelID, extraInfo, record.Timestamp)
	return r.Record(ctx, record, n)
}

// SetupLogging creates a private log category and channel visible to adminID,
// then stores them as the guild's log target. Concurrent calls for the same
// guild are serialised; a second setup fails with ErrAlreadyConfigured.
func (r *Recorder) SetupLogging(ctx context.Context, guildID, adminID snowflake.ID) (snowflake.ID, error) {
	unlock := r.locks.Lock(guildID)
	defer unlock()

	if _, ok, err := r.settings.GetLogChannel(ctx, guildID); err != nil {
		return 0, err
	} else if ok {
		return 0, ErrAlreadyConfigured
	}

	categoryID, err := r.platform.CreateCategory(ctx, guildID, platform.ChannelSpec{
		Name:       logCategoryName,
		Overwrites: platform.PrivateOverwrites(guildID, nil, nil),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create log category: %w", err)
	}

	channelID, err := r.platform.CreateTextChannel(ctx, guildID, platform.ChannelSpec{
		Name:       logChannelName,
		ParentID:   categoryID,
		Overwrites: platform.PrivateOverwrites(guildID, []snowflake.ID{adminID}, nil),
	})
	if err != nil {
		r.cleanupChannels(ctx, categoryID)
		return 0, fmt.Errorf("failed to create log channel: %w", err)
	}

	if err := r.settings.Setup(ctx, guildID, categoryID, channelID); err != nil {
		r.cleanupChannels(ctx, channelID, categoryID)
		return 0, err
	}

	r.logger.Info("Logging configured",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("channelID", uint64(channelID)),
		zap.Uint64("adminID", uint64(adminID)))

	return channelID, nil
}

// cleanupChannels removes channels created by a setup that did not complete.
func (r *Recorder) cleanupChannels(ctx context.Context, channelIDs ...snowflake.ID) {
	for _, id := range channelIDs {
		if err := r.platform.DeleteChannel(ctx, id); err != nil {
			r.logger.Warn("Failed to remove channel after failed setup",
				zap.Uint64("channelID", uint64(id)),
				zap.Error(err))
		}
	}
}
