package bot

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/guildlog"
	"go.uber.org/zap"
)

// logEvent records a guild event on the handler pool.
func (b *Bot) logEvent(name string, fn func(ctx context.Context) error) {
	b.submit("event:"+name, func(ctx context.Context) {
		if err := fn(ctx); err != nil {
			b.logger.Error("Failed to record guild event", zap.String("event", name), zap.Error(err))
		}
	})
}

// onMessageDelete logs deleted messages. Messages missing from the cache
// carry no author or content and are skipped.
func (b *Bot) onMessageDelete(e *events.GuildMessageDelete) {
	if e.Message.Author.ID == 0 {
		return
	}

	input := guildlog.MessageDelete{
		GuildID:   e.GuildID,
		ChannelID: e.ChannelID,
		AuthorID:  e.Message.Author.ID,
		AuthorBot: e.Message.Author.Bot,
		Content:   e.Message.Content,
	}
	b.logEvent("message_delete", func(ctx context.Context) error {
		return b.guildLog.MessageDeleted(ctx, input)
	})
}

// onMessageUpdate logs edits whose previous version is cached.
func (b *Bot) onMessageUpdate(e *events.GuildMessageUpdate) {
	if e.OldMessage.Author.ID == 0 {
		return
	}

	input := guildlog.MessageEdit{
		GuildID:   e.GuildID,
		ChannelID: e.ChannelID,
		AuthorID:  e.Message.Author.ID,
		AuthorBot: e.Message.Author.Bot,
		Before:    e.OldMessage.Content,
		After:     e.Message.Content,
	}
	b.logEvent("message_edit", func(ctx context.Context) error {
		return b.guildLog.MessageEdited(ctx, input)
	})
}

func (b *Bot) onMemberJoin(e *events.GuildMemberJoin) {
	input := guildlog.Member{
		GuildID:   e.GuildID,
		UserID:    e.Member.User.ID,
		AvatarURL: e.Member.User.EffectiveAvatarURL(),
	}
	b.logEvent("member_join", func(ctx context.Context) error {
		return b.guildLog.MemberJoined(ctx, input)
	})
}

func (b *Bot) onMemberLeave(e *events.GuildMemberLeave) {
	input := guildlog.Member{
		GuildID:   e.GuildID,
		UserID:    e.User.ID,
		AvatarURL: e.User.EffectiveAvatarURL(),
	}
	b.logEvent("member_leave", func(ctx context.Context) error {
		return b.guildLog.MemberLeft(ctx, input)
	})
}

// onMemberUpdate logs role and nickname changes. Without the cached previous
// state there is nothing to compare against.
func (b *Bot) onMemberUpdate(e *events.GuildMemberUpdate) {
	if e.OldMember.User.ID == 0 {
		return
	}

	input := guildlog.MemberUpdate{
		GuildID:   e.GuildID,
		UserID:    e.Member.User.ID,
		Username:  e.Member.User.Username,
		OldNick:   derefString(e.OldMember.Nick),
		NewNick:   derefString(e.Member.Nick),
		OldRoles:  e.OldMember.RoleIDs,
		NewRoles:  e.Member.RoleIDs,
		RoleNames: b.roleNames(e.GuildID, e.OldMember.RoleIDs, e.Member.RoleIDs),
	}
	b.logEvent("member_update", func(ctx context.Context) error {
		return b.guildLog.MemberUpdated(ctx, input)
	})
}

func (b *Bot) onBan(e *events.GuildBan) {
	input := guildlog.Ban{
		GuildID:   e.GuildID,
		UserID:    e.User.ID,
		Username:  e.User.Username,
		AvatarURL: e.User.EffectiveAvatarURL(),
	}
	b.logEvent("member_ban", func(ctx context.Context) error {
		return b.guildLog.MemberBanned(ctx, input)
	})
}

func (b *Bot) onUnban(e *events.GuildUnban) {
	input := guildlog.Ban{
		GuildID:  e.GuildID,
		UserID:   e.User.ID,
		Username: e.User.Username,
	}
	b.logEvent("member_unban", func(ctx context.Context) error {
		return b.guildLog.MemberUnbanned(ctx, input)
	})
}

func (b *Bot) onVoiceStateUpdate(e *events.GuildVoiceStateUpdate) {
	before := derefID(e.OldVoiceState.ChannelID)
	after := derefID(e.VoiceState.ChannelID)
	if before == after {
		return
	}

	input := guildlog.VoiceChange{
		GuildID:    e.VoiceState.GuildID,
		UserID:     e.VoiceState.UserID,
		Before:     before,
		After:      after,
		BeforeName: b.channelName(before),
		AfterName:  b.channelName(after),
	}
	b.logEvent("voice_state", func(ctx context.Context) error {
		return b.guildLog.VoiceStateChanged(ctx, input)
	})
}

func (b *Bot) onChannelCreate(e *events.GuildChannelCreate) {
	input := channelChange(e.GuildID, e.Channel)
	b.logEvent("channel_create", func(ctx context.Context) error {
		return b.guildLog.ChannelCreated(ctx, input)
	})
}

func (b *Bot) onChannelDelete(e *events.GuildChannelDelete) {
	input := channelChange(e.GuildID, e.Channel)
	b.logEvent("channel_delete", func(ctx context.Context) error {
		return b.guildLog.ChannelDeleted(ctx, input)
	})
}

// roleNames resolves the cached names of every role in either list.
func (b *Bot) roleNames(guildID snowflake.ID, lists ...[]snowflake.ID) map[snowflake.ID]string {
	names := make(map[snowflake.ID]string)
	for _, list := range lists {
		for _, id := range list {
			if role, ok := b.client.Caches().Role(guildID, id); ok {
				names[id] = role.Name
			}
		}
	}
	return names
}

func (b *Bot) channelName(channelID snowflake.ID) string {
	if channelID == 0 {
		return ""
	}
	if channel, ok := b.client.Caches().Channel(channelID); ok {
		return channel.Name()
	}
	return channelID.String()
}

func channelChange(guildID snowflake.ID, channel discord.GuildChannel) guildlog.ChannelChange {
	return guildlog.ChannelChange{
		GuildID:   guildID,
		ChannelID: channel.ID(),
		Name:      channel.Name(),
		Kind:      channelKind(channel.Type()),
	}
}

// channelKind names a channel type the way the audit log displays it.
func channelKind(kind discord.ChannelType) string {
	switch kind {
	case discord.ChannelTypeGuildText:
		return "text"
	case discord.ChannelTypeGuildVoice:
		return "voice"
	case discord.ChannelTypeGuildCategory:
		return "category"
	case discord.ChannelTypeGuildNews:
		return "news"
	case discord.ChannelTypeGuildStageVoice:
		return "stage_voice"
	case discord.ChannelTypeGuildForum:
		return "forum"
	default:
		return "unknown"
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefID(id *snowflake.ID) snowflake.ID {
	if id == nil {
		return 0
	}
	return *id
}
