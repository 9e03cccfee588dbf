package notify

import (
	"github.com/robalyx/warden/internal/database/types/enum"
)

// GenericIcon is shown for action identifiers outside the known set.
const GenericIcon = "📝"

type actionStyle struct {
	icon  string
	title string
	color int
}

var actionStyles = map[enum.Action]actionStyle{
	// Guild events
	enum.ActionMessageDelete:     {"🗑️", "Message deleted", ColorRed},
	enum.ActionMessageEdit:       {"✏️", "Message edited", ColorOrange},
	enum.ActionMemberJoin:        {"📥", "Member joined", ColorGreen},
	enum.ActionMemberLeave:       {"📤", "Member left", ColorRed},
	enum.ActionMemberRolesUpdate: {"🎭", "Roles updated", ColorBlue},
	enum.ActionMemberNickUpdate:  {"📝", "Nickname changed", ColorBlue},
	enum.ActionMemberBan:         {"🔨", "Member banned", ColorDarkRed},
	enum.ActionMemberUnban:       {"✅", "Member unbanned", ColorGreen},
	enum.ActionVoiceJoin:         {"🔊", "Joined voice channel", ColorGreen},
	enum.ActionVoiceLeave:        {"🔇", "Left voice channel", ColorRed},
	enum.ActionVoiceMove:         {"🔄", "Switched voice channel", ColorBlue},
	enum.ActionChannelCreate:     {"➕", "Channel created", ColorGreen},
	enum.ActionChannelDelete:     {"➖", "Channel deleted", ColorRed},

	// Moderation
	enum.ActionMute:   {"🔇", "Mute issued", ColorOrange},
	enum.ActionUnmute: {"🔊", "Mute removed", ColorOrange},
	enum.ActionKick:   {"👢", "Kick", ColorOrange},
	enum.ActionBan:    {"🚫", "Ban", ColorOrange},
	enum.ActionUnban:  {"✅", "Unban", ColorOrange},
	enum.ActionWarn:   {"⚠️", "Warning", ColorOrange},
	enum.ActionUnwarn: {"✅", "Warning removed", ColorOrange},
	enum.ActionClear:  {"🗑️", "Messages cleared", ColorOrange},

	// Tickets
	enum.ActionTicketCreate: {"🎫", "Ticket created", ColorBlue},
	enum.ActionTicketClose:  {"❌", "Ticket closed", ColorBlue},
	enum.ActionTicketAccept: {"✅", "Ticket accepted", ColorBlue},

	// Temporary voice channels
	enum.ActionTempVoiceCreate:   {"🔊", "Temporary channel created", ColorPurple},
	enum.ActionTempVoiceDelete:   {"🗑️", "Temporary channel deleted", ColorPurple},
	enum.ActionTempVoiceLock:     {"🔐", "Channel locked", ColorPurple},
	enum.ActionTempVoiceUnlock:   {"🔓", "Channel unlocked", ColorPurple},
	enum.ActionTempVoiceTransfer: {"👑", "Ownership transferred", ColorPurple},
}

// Describe returns the icon and title for an action.
// Unknown actions get the generic icon and their raw identifier as the title.
func Describe(action enum.Action) (icon, title string) {
	if style, ok := actionStyles[action]; ok {
		return style.icon, style.title
	}
	return GenericIcon, string(action)
}

// Color returns the embed color for an action.
func Color(action enum.Action) int {
	if style, ok := actionStyles[action]; ok {
		return style.color
	}

	switch action.Family() {
	case enum.FamilyModeration:
		return ColorOrange
	case enum.FamilyTempVoice:
		return ColorPurple
	default:
		return ColorBlue
	}
}

// Heading returns the "<icon> <title>" line used as an embed title.
func Heading(action enum.Action) string {
	icon, title := Describe(action)
	return icon + " " + title
}
