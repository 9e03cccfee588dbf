package notify

import (
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var typeEmojis = map[string]string{
	"general":    "🎫",
	"report":     "⚠️",
	"bug":        "🐛",
	"support":    "🛠️",
	"question":   "❓",
	"suggestion": "💡",
	"other":      "📝",
}

// TypeEmoji returns the button emoji for a ticket type.
func TypeEmoji(ticketType string) string {
	if emoji, ok := typeEmojis[ticketType]; ok {
		return emoji
	}
	return "🎫"
}

// TypeLabel returns a display label for a ticket type, e.g. "bug" becomes "Bug".
func TypeLabel(ticketType string) string {
	return cases.Title(language.English).String(ticketType)
}

// TicketPanel is the intake message that users create tickets from.
func TicketPanel() *Notification {
	return &Notification{
		Title:       "🎫 Support",
		Description: "Press a button below to open a ticket.\nChoose the request type:",
		Color:       ColorBlue,
	}
}

// TicketWelcome is the first message posted in a new ticket channel.
func TicketWelcome(
	ticketID int64, authorID snowflake.ID, avatarURL, ticketType, welcomeMessage string, createdAt time.Time,
) *Notification {
	n := &Notification{
		Title:       fmt.Sprintf("🎫 Ticket #%d", ticketID),
		Description: "**" + welcomeMessage + "**",
		Color:       ColorBlurple,
		Thumbnail:   avatarURL,
		Footer:      "Use the buttons below to manage this ticket",
	}
	n.AddField("👤 Author", UserMention(authorID), true).
		AddField("📁 Type", TypeLabel(ticketType), true).
		AddField("🕒 Created", RelativeTime(createdAt), true)
	return n
}

// TicketPing is the plain-text line that notifies the author and support role.
func TicketPing(authorID, supportRoleID snowflake.ID) string {
	if supportRoleID == 0 {
		return UserMention(authorID)
	}
	return UserMention(authorID) + " " + RoleMention(supportRoleID)
}

// TicketOpenedLog is posted to the ticket log channel when a ticket is created.
func TicketOpenedLog(
	ticketID int64, authorID, channelID snowflake.ID, ticketType string, at time.Time,
) *Notification {
	return &Notification{
		Title: "🎫 New ticket",
		Description: fmt.Sprintf("**Ticket:** #%d\n**Author:** %s (%d)\n**Type:** %s\n**Channel:** %s",
			ticketID, UserMention(authorID), authorID, ticketType, ChannelMention(channelID)),
		Color:     ColorGreen,
		Timestamp: at,
	}
}

// TicketAccepted is posted in the ticket channel when a moderator takes it.
func TicketAccepted(moderatorID snowflake.ID) *Notification {
	return &Notification{
		Title:       "✅ Ticket accepted",
		Description: fmt.Sprintf("Moderator %s accepted the ticket.", UserMention(moderatorID)),
		Color:       ColorGreen,
	}
}

// TicketClosed is posted in the ticket channel and the ticket log channel on close.
func TicketClosed(ticketID int64, moderatorID snowflake.ID, reason string, at time.Time) *Notification {
	return &Notification{
		Title:       fmt.Sprintf("❌ Ticket #%d closed", ticketID),
		Description: fmt.Sprintf("**Reason:** %s\n**Closed by:** %s", clip(reason), UserMention(moderatorID)),
		Color:       ColorRed,
		Timestamp:   at,
	}
}

// TicketTranscriptDM accompanies the transcript file sent to the ticket author.
func TicketTranscriptDM(ticketID int64, guildName, reason string) *Notification {
	return &Notification{
		Title:       fmt.Sprintf("📋 Ticket #%d transcript", ticketID),
		Description: fmt.Sprintf("**Server:** %s\n**Close reason:** %s", guildName, clip(reason)),
		Color:       ColorBlue,
	}
}

// TranscriptFileName names the attachment a transcript is delivered as.
func TranscriptFileName(ticketID int64) string {
	return fmt.Sprintf("ticket-%d-transcript.txt", ticketID)
}
