package types

import (
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// ErrLogsAlreadyConfigured is returned when a guild already has a log channel.
var ErrLogsAlreadyConfigured = errors.New("logging is already configured for this guild")

// LogRecord is an append-only audit entry for one guild event or moderator action.
// Zero-valued optional fields are stored as NULL.
type LogRecord struct {
	bun.BaseModel `bun:"table:logs"`

	ID             int64        `bun:",pk,autoincrement" json:"id"`
	GuildID        snowflake.ID `bun:",notnull" json:"guildId"`
	UserID         snowflake.ID `bun:",nullzero" json:"userId,omitempty"`
	Action         enum.Action  `bun:",notnull" json:"action"`
	Timestamp      time.Time    `bun:",notnull" json:"timestamp"`
	UserActionedID snowflake.ID `bun:"user_actioned_id,nullzero" json:"userActionedId,omitempty"`
	Reason         string       `bun:",nullzero" json:"reason,omitempty"`
	Duration       string       `bun:",nullzero" json:"duration,omitempty"`
	DeletedMessage string       `bun:"deleted_message,nullzero" json:"deletedMessage,omitempty"`
	ChannelID      snowflake.ID `bun:",nullzero" json:"channelId,omitempty"`
	ModeratorID    snowflake.ID `bun:",nullzero" json:"moderatorId,omitempty"`
	ExtraInfo      string       `bun:",nullzero" json:"extraInfo,omitempty"`
}

// GuildLogSettings stores where a guild's audit trail is posted.
type GuildLogSettings struct {
	bun.BaseModel `bun:"table:settings"`

	GuildID    snowflake.ID `bun:",pk"`
	IsSetup    bool         `bun:",notnull,default:false"`
	CategoryID snowflake.ID `bun:",nullzero"`
	ChannelID  snowflake.ID `bun:",nullzero"`
}
