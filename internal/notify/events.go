package notify

import (
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/types/enum"
)

// newNotification starts a notification styled for the action.
func newNotification(action enum.Action, at time.Time) *Notification {
	return &Notification{
		Title:     Heading(action),
		Color:     Color(action),
		Timestamp: at,
	}
}

// MessageDeleted describes a deleted message. Content is shown as given.
func MessageDeleted(authorID, channelID snowflake.ID, content string, at time.Time) *Notification {
	n := newNotification(enum.ActionMessageDelete, at)
	n.Description = fmt.Sprintf("**Author:** %s\n**Channel:** %s\n**Content:** %s",
		UserMention(authorID), ChannelMention(channelID), orNoText(content))
	n.Footer = userFooter(authorID)
	return n
}

// MessageEdited describes an edited message.
func MessageEdited(authorID, channelID snowflake.ID, before, after string, at time.Time) *Notification {
	n := newNotification(enum.ActionMessageEdit, at)
	n.AddField("Author", UserMention(authorID), false).
		AddField("Channel", ChannelMention(channelID), false).
		AddField("Before", orNoText(before), false).
		AddField("After", orNoText(after), false)
	n.Footer = userFooter(authorID)
	return n
}

// MemberJoined describes a member joining the guild.
func MemberJoined(userID snowflake.ID, avatarURL string, accountCreated time.Time, at time.Time) *Notification {
	n := newNotification(enum.ActionMemberJoin, at)
	n.Description = UserMention(userID) + " joined the server"
	n.Thumbnail = avatarURL
	n.AddField("ID", userID.String(), true)
	if !accountCreated.IsZero() {
		n.AddField("Account created", RelativeTime(accountCreated), true)
	}
	return n
}

// MemberLeft describes a member leaving the guild.
func MemberLeft(userID snowflake.ID, avatarURL string, at time.Time) *Notification {
	n := newNotification(enum.ActionMemberLeave, at)
	n.Description = UserMention(userID) + " left the server"
	n.Thumbnail = avatarURL
	n.AddField("ID", userID.String(), true)
	return n
}

// RolesUpdated describes roles added to or removed from a member.
func RolesUpdated(userID snowflake.ID, added, removed []snowflake.ID, at time.Time) *Notification {
	n := newNotification(enum.ActionMemberRolesUpdate, at)
	n.AddField("Member", UserMention(userID), false)
	if len(added) > 0 {
		n.AddField("Added", joinRoles(added), false)
	}
	if len(removed) > 0 {
		n.AddField("Removed", joinRoles(removed), false)
	}
	n.Footer = userFooter(userID)
	return n
}

// NicknameChanged describes a nickname change. Callers pass the username
// when a nickname is unset.
func NicknameChanged(userID snowflake.ID, before, after string, at time.Time) *Notification {
	n := newNotification(enum.ActionMemberNickUpdate, at)
	n.AddField("Member", UserMention(userID), false).
		AddField("Old", before, true).
		AddField("New", after, true)
	n.Footer = userFooter(userID)
	return n
}

// MemberBanned describes a ban. A zero moderatorID means the audit log had no entry.
func MemberBanned(
	userID snowflake.ID, username, avatarURL string, moderatorID snowflake.ID, reason string, at time.Time,
) *Notification {
	n := newNotification(enum.ActionMemberBan, at)
	n.Description = fmt.Sprintf("%s (%s)", UserMention(userID), username)
	n.Thumbnail = avatarURL
	n.AddField("ID", userID.String(), true)
	if moderatorID != 0 {
		n.AddField("Moderator", UserMention(moderatorID), true)
	}
	if reason == "" {
		reason = "Not specified"
	}
	n.AddField("Reason", clip(reason), false)
	return n
}

// MemberUnbanned describes a lifted ban.
func MemberUnbanned(userID snowflake.ID, username string, moderatorID snowflake.ID, at time.Time) *Notification {
	n := newNotification(enum.ActionMemberUnban, at)
	n.Description = fmt.Sprintf("%s (%s)", UserMention(userID), username)
	n.AddField("ID", userID.String(), true)
	if moderatorID != 0 {
		n.AddField("Moderator", UserMention(moderatorID), true)
	}
	return n
}

// VoiceJoined describes a member connecting to a voice channel.
func VoiceJoined(userID, channelID snowflake.ID, at time.Time) *Notification {
	n := newNotification(enum.ActionVoiceJoin, at)
	n.Description = fmt.Sprintf("%s connected to %s", UserMention(userID), ChannelMention(channelID))
	n.Footer = userFooter(userID)
	return n
}

// VoiceLeft describes a member disconnecting from a voice channel.
func VoiceLeft(userID, channelID snowflake.ID, at time.Time) *Notification {
	n := newNotification(enum.ActionVoiceLeave, at)
	n.Description = fmt.Sprintf("%s disconnected from %s", UserMention(userID), ChannelMention(channelID))
	n.Footer = userFooter(userID)
	return n
}

// VoiceMoved describes a member switching voice channels.
func VoiceMoved(userID, from, to snowflake.ID, at time.Time) *Notification {
	n := newNotification(enum.ActionVoiceMove, at)
	n.Description = UserMention(userID) + " switched channels"
	n.AddField("From", ChannelMention(from), true).
		AddField("To", ChannelMention(to), true)
	n.Footer = userFooter(userID)
	return n
}

// ChannelCreated describes a new guild channel.
func ChannelCreated(channelID snowflake.ID, kind string, at time.Time) *Notification {
	n := newNotification(enum.ActionChannelCreate, at)
	n.Description = fmt.Sprintf("**Name:** %s\n**Type:** %s", ChannelMention(channelID), kind)
	return n
}

// ChannelDeleted describes a removed guild channel. The channel no longer
// exists, so it is shown by name.
func ChannelDeleted(name, kind string, at time.Time) *Notification {
	n := newNotification(enum.ActionChannelDelete, at)
	n.Description = fmt.Sprintf("**Name:** %s\n**Type:** %s", name, kind)
	return n
}

// ModerationAction describes an action a moderator took against a user.
func ModerationAction(
	action enum.Action, moderatorID, userID snowflake.ID, reason, duration string, at time.Time,
) *Notification {
	n := newNotification(action, at)
	n.AddField("Moderator", mentionOrUnknown(moderatorID), true).
		AddField("User", mentionOrUnknown(userID), true)
	if reason != "" {
		n.AddField("Reason", clip(reason), false)
	}
	if duration != "" {
		n.AddField("Duration", duration, false)
	}
	n.Footer = fmt.Sprintf("Moderator ID: %d | User ID: %d", moderatorID, userID)
	return n
}

// TicketAction describes a ticket lifecycle event for the guild log channel.
func TicketAction(action enum.Action, userID snowflake.ID, ticketID int64, extraInfo string, at time.Time) *Notification {
	n := newNotification(action, at)
	n.Description = "**User:** " + mentionOrUnknown(userID)
	if ticketID != 0 {
		n.Description += fmt.Sprintf("\n**Ticket:** #%d", ticketID)
	}
	if extraInfo != "" {
		n.AddField("Details", clip(extraInfo), false)
	}
	n.Footer = userFooter(userID)
	return n
}

// TempVoiceAction describes a temporary voice channel event.
func TempVoiceAction(
	action enum.Action, userID, channelID snowflake.ID, extraInfo string, at time.Time,
) *Notification {
	n := newNotification(action, at)
	n.AddField("User", mentionOrUnknown(userID), true)
	if channelID != 0 {
		n.AddField("Channel", ChannelMention(channelID), true)
	}
	if extraInfo != "" {
		n.AddField("Details", clip(extraInfo), false)
	}
	n.Footer = userFooter(userID)
	return n
}
