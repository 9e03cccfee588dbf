package guildlog

import (
	"fmt"

	"github.com/disgoorg/snowflake/v2"
)

// MessageDelete is a message removed from a guild channel.
type MessageDelete struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	AuthorID  snowflake.ID
	AuthorBot bool
	Content   string
}

// MessageEdit is a message whose content may have changed.
type MessageEdit struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	AuthorID  snowflake.ID
	AuthorBot bool
	Before    string
	After     string
}

// Member identifies a member joining or leaving.
type Member struct {
	GuildID   snowflake.ID
	UserID    snowflake.ID
	AvatarURL string
}

// MemberUpdate carries a member's state before and after an update.
// RoleNames resolves role IDs for the stored record.
type MemberUpdate struct {
	GuildID   snowflake.ID
	UserID    snowflake.ID
	Username  string
	OldNick   string
	NewNick   string
	OldRoles  []snowflake.ID
	NewRoles  []snowflake.ID
	RoleNames map[snowflake.ID]string
}

// Ban is a user banned from or unbanned in a guild.
type Ban struct {
	GuildID   snowflake.ID
	UserID    snowflake.ID
	Username  string
	AvatarURL string
}

// VoiceChange is a member's voice channel before and after a voice state
// update. A zero channel means not connected.
type VoiceChange struct {
	GuildID    snowflake.ID
	UserID     snowflake.ID
	Before     snowflake.ID
	After      snowflake.ID
	BeforeName string
	AfterName  string
}

// ChannelChange is a guild channel that was created or deleted.
type ChannelChange struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	Name      string
	Kind      string
}

func (e ChannelChange) info() string {
	return fmt.Sprintf("Name: %s | Type: %s", e.Name, e.Kind)
}
