package ticket

import (
	"bytes"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/notify"
)

// Component custom IDs.
const (
	CreateButtonPrefix = "create_ticket_"
	AcceptButtonID     = "accept_ticket"
	CloseButtonID      = "close_ticket"
	TranscriptButtonID = "transcript_ticket"
	CloseModalID       = "ticket_close_modal"
	ReasonInputID      = "reason"
)

const (
	// DefaultCloseReason replaces an empty close reason.
	DefaultCloseReason = "Not specified"

	maxButtonsPerRow = 5
	maxActionRows    = 5
	maxReasonLength  = 500
)

// ParseCreateButton extracts the ticket type from a create button's custom ID.
func ParseCreateButton(customID string) (string, bool) {
	ticketType, ok := strings.CutPrefix(customID, CreateButtonPrefix)
	if !ok || ticketType == "" {
		return "", false
	}
	return ticketType, true
}

// PanelMessage builds the intake message with one button per ticket type.
func PanelMessage(types []string) discord.MessageCreate {
	var rows []discord.ContainerComponent
	var row []discord.InteractiveComponent

	for _, ticketType := range types {
		if len(rows) == maxActionRows {
			break
		}

		row = append(row, discord.NewPrimaryButton(notify.TypeLabel(ticketType), CreateButtonPrefix+ticketType).
			WithEmoji(discord.ComponentEmoji{Name: notify.TypeEmoji(ticketType)}))

		if len(row) == maxButtonsPerRow {
			rows = append(rows, discord.NewActionRow(row...))
			row = nil
		}
	}
	if len(row) > 0 && len(rows) < maxActionRows {
		rows = append(rows, discord.NewActionRow(row...))
	}

	return discord.NewMessageCreateBuilder().
		SetEmbeds(notify.TicketPanel().Embed()).
		AddContainerComponents(rows...).
		Build()
}

// WelcomeMessage builds the first message of a ticket channel with its action buttons.
func WelcomeMessage(n *notify.Notification) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetEmbeds(n.Embed()).
		AddActionRow(
			discord.NewSuccessButton("Accept", AcceptButtonID).
				WithEmoji(discord.ComponentEmoji{Name: "✅"}),
			discord.NewDangerButton("Close", CloseButtonID).
				WithEmoji(discord.ComponentEmoji{Name: "❌"}),
			discord.NewPrimaryButton("Transcript", TranscriptButtonID).
				WithEmoji(discord.ComponentEmoji{Name: "📋"}),
		).
		Build()
}

// pingMessage notifies the author and support roles of a new ticket.
func pingMessage(userID snowflake.ID, roleIDs []snowflake.ID) discord.MessageCreate {
	var roleID snowflake.ID
	if len(roleIDs) > 0 {
		roleID = roleIDs[0]
	}

	return discord.NewMessageCreateBuilder().
		SetContent(notify.TicketPing(userID, roleID)).
		SetAllowedMentions(&discord.AllowedMentions{
			Users: []snowflake.ID{userID},
			Roles: roleIDs,
		}).
		Build()
}

// EmbedMessage wraps a single notification as a message.
func EmbedMessage(n *notify.Notification) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetEmbeds(n.Embed()).
		Build()
}

// TranscriptMessage attaches a transcript file, optionally with an embed.
func TranscriptMessage(ticketID int64, content string, n *notify.Notification) discord.MessageCreate {
	builder := discord.NewMessageCreateBuilder().
		AddFiles(discord.NewFile(notify.TranscriptFileName(ticketID), "", bytes.NewReader([]byte(content))))

	if n != nil {
		builder.SetEmbeds(n.Embed())
	}

	return builder.Build()
}

// CloseModal asks for the reason a ticket is being closed.
func CloseModal() discord.ModalCreate {
	return discord.NewModalCreateBuilder().
		SetCustomID(CloseModalID).
		SetTitle("Close ticket").
		AddActionRow(
			discord.NewTextInput(ReasonInputID, discord.TextInputStyleParagraph, "Close reason").
				WithPlaceholder("Why is this ticket being closed?").
				WithMaxLength(maxReasonLength).
				WithRequired(false),
		).
		Build()
}

// NormalizeReason trims a close reason and substitutes the default when blank.
func NormalizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return DefaultCloseReason
	}
	return reason
}
