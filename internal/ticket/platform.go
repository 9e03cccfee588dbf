package ticket

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/audit"
	"github.com/robalyx/warden/internal/platform"
)

// Platform is everything the ticket workflow needs from Discord.
type Platform interface {
	audit.Platform

	SendDM(ctx context.Context, userID snowflake.ID, msg discord.MessageCreate) error
	ChannelExists(ctx context.Context, channelID snowflake.ID) (bool, error)
	RoleExists(ctx context.Context, guildID, roleID snowflake.ID) (bool, error)

	// FetchHistory returns every message in a channel, oldest first.
	FetchHistory(ctx context.Context, channelID snowflake.ID) ([]platform.HistoryMessage, error)
}
