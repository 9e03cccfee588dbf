// Package platform holds the data types shared by the Discord adapter and the
// services that drive it.
package platform

import (
	"errors"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// ErrUnavailable is returned when the platform refuses or cannot serve a request,
// e.g. a missing permission or a closed DM.
var ErrUnavailable = errors.New("platform request unavailable")

// Permissions granted to members of a private channel.
const MemberPermissions = discord.PermissionViewChannel |
	discord.PermissionSendMessages |
	discord.PermissionReadMessageHistory

// ChannelSpec describes a channel to create.
type ChannelSpec struct {
	Name       string
	Topic      string
	ParentID   snowflake.ID
	Overwrites []discord.PermissionOverwrite
}

// PrivateOverwrites hides a channel from everyone and grants members access.
// The guild's @everyone role shares the guild's ID.
func PrivateOverwrites(guildID snowflake.ID, memberIDs []snowflake.ID, roleIDs []snowflake.ID) []discord.PermissionOverwrite {
	overwrites := []discord.PermissionOverwrite{
		discord.RolePermissionOverwrite{
			RoleID: guildID,
			Deny:   discord.PermissionViewChannel,
		},
	}

	for _, id := range memberIDs {
		overwrites = append(overwrites, discord.MemberPermissionOverwrite{
			UserID: id,
			Allow:  MemberPermissions,
		})
	}

	for _, id := range roleIDs {
		overwrites = append(overwrites, discord.RolePermissionOverwrite{
			RoleID: id,
			Allow:  MemberPermissions,
		})
	}

	return overwrites
}

// HistoryMessage is one message from a channel's history, with mentions resolved
// to display names where the platform knows them.
type HistoryMessage struct {
	AuthorName    string
	Discriminator string
	AuthorBot     bool
	Content       string
	HasEmbeds     bool
	Attachments   []string
	CreatedAt     time.Time

	// Display names keyed by the mentioned ID.
	Users    map[snowflake.ID]string
	Roles    map[snowflake.ID]string
	Channels map[snowflake.ID]string
}

// AuditEntry is the moderator attribution for a ban or unban.
type AuditEntry struct {
	ModeratorID snowflake.ID
	Reason      string
}
