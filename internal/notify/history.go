package notify

import (
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/types"
)

const maxDescriptionLength = 4096

// LogHistory lists a user's recent log records, newest first.
func LogHistory(userID snowflake.ID, records []*types.LogRecord) *Notification {
	n := &Notification{
		Title:  "📋 Recent activity",
		Color:  ColorBlurple,
		Footer: userFooter(userID),
	}

	if len(records) == 0 {
		n.Description = fmt.Sprintf("No records for %s.", UserMention(userID))
		return n
	}

	var b strings.Builder
	for _, record := range records {
		line := fmt.Sprintf("`#%d` %s %s", record.ID, RelativeTime(record.Timestamp), Heading(record.Action))
		if detail := recordDetail(record); detail != "" {
			line += ": " + detail
		}
		line += "\n"

		if b.Len()+len(line) > maxDescriptionLength {
			break
		}
		b.WriteString(line)
	}

	n.Description = b.String()
	return n
}

func recordDetail(record *types.LogRecord) string {
	switch {
	case record.ExtraInfo != "":
		return record.ExtraInfo
	case record.Reason != "":
		return "Reason: " + record.Reason
	case record.DeletedMessage != "":
		return record.DeletedMessage
	default:
		return ""
	}
}

// TicketConfigSummary shows a guild's ticket settings.
func TicketConfigSummary(cfg *types.TicketConfig) *Notification {
	n := &Notification{
		Title: "⚙️ Ticket settings",
		Color: ColorBlue,
	}

	n.AddField("Category", channelOrNone(cfg.CategoryID), true).
		AddField("Intake channel", channelOrNone(cfg.CreateChannelID), true).
		AddField("Log channel", channelOrNone(cfg.LogChannelID), true).
		AddField("Support role", roleOrNone(cfg.SupportRoleID), true).
		AddField("Max open tickets", fmt.Sprintf("%d", cfg.MaxTicketsPerUser), true).
		AddField("Cooldown", fmt.Sprintf("%d s", cfg.TicketCooldown), true).
		AddField("Require topic", fmt.Sprintf("%t", cfg.RequireTopic), true).
		AddField("Auto close", fmt.Sprintf("%d h", cfg.AutoCloseHours), true).
		AddField("Types", strings.Join(cfg.Types(), ", "), false).
		AddField("Welcome message", clip(cfg.WelcomeMessage), false)

	return n
}

func channelOrNone(id snowflake.ID) string {
	if id == 0 {
		return "None"
	}
	return ChannelMention(id)
}

func roleOrNone(id snowflake.ID) string {
	if id == 0 {
		return "None"
	}
	return RoleMention(id)
}
