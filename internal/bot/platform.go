package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/platform"
	"github.com/robalyx/warden/internal/ticket"
)

const (
	historyPageSize = 100
	auditLookback   = 5
)

var _ ticket.Platform = (*restPlatform)(nil)

// restPlatform implements the ticket and audit platform over the Discord REST API.
type restPlatform struct {
	client bot.Client
}

func newRestPlatform(client bot.Client) *restPlatform {
	return &restPlatform{client: client}
}

func (p *restPlatform) SendMessage(
	_ context.Context, channelID snowflake.ID, msg discord.MessageCreate,
) (snowflake.ID, error) {
	message, err := p.client.Rest().CreateMessage(channelID, msg)
	if err != nil {
		return 0, mapRestError(err)
	}
	return message.ID, nil
}

func (p *restPlatform) SendDM(_ context.Context, userID snowflake.ID, msg discord.MessageCreate) error {
	channel, err := p.client.Rest().CreateDMChannel(userID)
	if err != nil {
		return mapRestError(err)
	}

	if _, err := p.client.Rest().CreateMessage(channel.ID(), msg); err != nil {
		return mapRestError(err)
	}
	return nil
}

func (p *restPlatform) CreateCategory(
	_ context.Context, guildID snowflake.ID, spec platform.ChannelSpec,
) (snowflake.ID, error) {
	channel, err := p.client.Rest().CreateGuildChannel(guildID, discord.GuildCategoryChannelCreate{
		Name:                 spec.Name,
		PermissionOverwrites: p.withSelf(spec.Overwrites),
	})
	if err != nil {
		return 0, mapRestError(err)
	}
	return channel.ID(), nil
}

func (p *restPlatform) CreateTextChannel(
	_ context.Context, guildID snowflake.ID, spec platform.ChannelSpec,
) (snowflake.ID, error) {
	channel, err := p.client.Rest().CreateGuildChannel(guildID, discord.GuildTextChannelCreate{
		Name:                 spec.Name,
		Topic:                spec.Topic,
		ParentID:             spec.ParentID,
		PermissionOverwrites: p.withSelf(spec.Overwrites),
	})
	if err != nil {
		return 0, mapRestError(err)
	}
	return channel.ID(), nil
}

func (p *restPlatform) DeleteChannel(_ context.Context, channelID snowflake.ID) error {
	return mapRestError(p.client.Rest().DeleteChannel(channelID))
}

func (p *restPlatform) ChannelExists(_ context.Context, channelID snowflake.ID) (bool, error) {
	if _, ok := p.client.Caches().Channel(channelID); ok {
		return true, nil
	}

	if _, err := p.client.Rest().GetChannel(channelID); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, mapRestError(err)
	}
	return true, nil
}

func (p *restPlatform) RoleExists(_ context.Context, guildID, roleID snowflake.ID) (bool, error) {
	if _, ok := p.client.Caches().Role(guildID, roleID); ok {
		return true, nil
	}

	roles, err := p.client.Rest().GetRoles(guildID)
	if err != nil {
		return false, mapRestError(err)
	}

	return slices.ContainsFunc(roles, func(role discord.Role) bool {
		return role.ID == roleID
	}), nil
}

// FetchHistory pages through a channel newest to oldest and returns the
// messages oldest first.
func (p *restPlatform) FetchHistory(ctx context.Context, channelID snowflake.ID) ([]platform.HistoryMessage, error) {
	var (
		messages []discord.Message
		before   snowflake.ID
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := p.client.Rest().GetMessages(channelID, 0, before, 0, historyPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch messages: %w", mapRestError(err))
		}

		messages = append(messages, page...)
		if len(page) < historyPageSize {
			break
		}
		before = page[len(page)-1].ID
	}

	slices.Reverse(messages)

	var guildID snowflake.ID
	if channel, ok := p.client.Caches().Channel(channelID); ok {
		guildID = channel.GuildID()
	}

	history := make([]platform.HistoryMessage, len(messages))
	for i, msg := range messages {
		history[i] = toHistoryMessage(msg, p.roleNames(guildID), p.channelNames)
	}
	return history, nil
}

// FindAuditEntry returns the most recent audit entry of the given type that
// targets targetID. A missing entry or permission maps to ErrUnavailable.
func (p *restPlatform) FindAuditEntry(
	_ context.Context, guildID, targetID snowflake.ID, event discord.AuditLogEvent,
) (platform.AuditEntry, error) {
	auditLog, err := p.client.Rest().GetAuditLog(guildID, 0, event, 0, 0, auditLookback)
	if err != nil {
		return platform.AuditEntry{}, mapRestError(err)
	}

	for _, entry := range auditLog.AuditLogEntries {
		if entry.TargetID == nil || *entry.TargetID != targetID {
			continue
		}

		result := platform.AuditEntry{ModeratorID: entry.UserID}
		if entry.Reason != nil {
			result.Reason = *entry.Reason
		}
		return result, nil
	}

	return platform.AuditEntry{}, platform.ErrUnavailable
}

// withSelf grants the bot access to channels it hides from everyone else.
func (p *restPlatform) withSelf(overwrites []discord.PermissionOverwrite) []discord.PermissionOverwrite {
	if len(overwrites) == 0 {
		return nil
	}
	return append(slices.Clone(overwrites), discord.MemberPermissionOverwrite{
		UserID: p.client.ID(),
		Allow:  platform.MemberPermissions | discord.PermissionManageChannels,
	})
}

func (p *restPlatform) roleNames(guildID snowflake.ID) func(snowflake.ID) (string, bool) {
	return func(roleID snowflake.ID) (string, bool) {
		if guildID == 0 {
			return "", false
		}
		role, ok := p.client.Caches().Role(guildID, roleID)
		return role.Name, ok
	}
}

func (p *restPlatform) channelNames(channelID snowflake.ID) (string, bool) {
	channel, ok := p.client.Caches().Channel(channelID)
	if !ok {
		return "", false
	}
	return channel.Name(), true
}

// toHistoryMessage converts a Discord message, resolving the mentions it carries.
// User mentions come with the message; roles and channels are looked up.
func toHistoryMessage(
	msg discord.Message, roleName, channelName func(snowflake.ID) (string, bool),
) platform.HistoryMessage {
	history := platform.HistoryMessage{
		AuthorName:    msg.Author.Username,
		Discriminator: msg.Author.Discriminator,
		AuthorBot:     msg.Author.Bot,
		Content:       msg.Content,
		HasEmbeds:     len(msg.Embeds) > 0,
		CreatedAt:     msg.CreatedAt,
		Users:         make(map[snowflake.ID]string, len(msg.Mentions)),
		Roles:         make(map[snowflake.ID]string),
		Channels:      make(map[snowflake.ID]string),
	}

	for _, attachment := range msg.Attachments {
		history.Attachments = append(history.Attachments, attachment.Filename)
	}

	for _, user := range msg.Mentions {
		history.Users[user.ID] = user.Username
	}

	for _, roleID := range msg.MentionRoles {
		if name, ok := roleName(roleID); ok {
			history.Roles[roleID] = name
		}
	}

	for _, channelID := range platform.MentionedChannels(msg.Content) {
		if name, ok := channelName(channelID); ok {
			history.Channels[channelID] = name
		}
	}

	return history
}

// mapRestError translates refusals the caller cannot fix into ErrUnavailable.
func mapRestError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *rest.Error
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%w: %w", platform.ErrUnavailable, err)
		}
	}
	return err
}

func isNotFound(err error) bool {
	var restErr *rest.Error
	return errors.As(err, &restErr) && restErr.Response != nil &&
		restErr.Response.StatusCode == http.StatusNotFound
}
