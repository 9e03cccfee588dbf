package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

const (
	noText         = "*No text*"
	unknownUser    = "Unknown"
	maxFieldLength = 1024
)

// UserMention formats a user mention.
func UserMention(id snowflake.ID) string {
	return fmt.Sprintf("<@%d>", id)
}

// RoleMention formats a role mention.
func RoleMention(id snowflake.ID) string {
	return fmt.Sprintf("<@&%d>", id)
}

// ChannelMention formats a channel mention.
func ChannelMention(id snowflake.ID) string {
	return fmt.Sprintf("<#%d>", id)
}

// RelativeTime formats a timestamp that clients render relative to now.
func RelativeTime(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// mentionOrUnknown mentions a user, or says the user is unknown for a zero ID.
func mentionOrUnknown(id snowflake.ID) string {
	if id == 0 {
		return unknownUser
	}
	return UserMention(id)
}

func userFooter(id snowflake.ID) string {
	return fmt.Sprintf("User ID: %d", id)
}

func orNoText(s string) string {
	if s == "" {
		return noText
	}
	return clip(s)
}

// clip keeps field values within the embed field limit.
func clip(s string) string {
	if len([]rune(s)) <= maxFieldLength {
		return s
	}
	return string([]rune(s)[:maxFieldLength-3]) + "..."
}

func joinRoles(ids []snowflake.ID) string {
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = RoleMention(id)
	}
	return strings.Join(mentions, ", ")
}
