package enum

// Action identifies the kind of event a log record describes.
// Values are stored verbatim in the logs table.
type Action string

// Guild events observed from the gateway.
const (
	ActionMessageDelete     Action = "message_delete"
	ActionMessageEdit       Action = "message_edit"
	ActionMemberJoin        Action = "member_join"
	ActionMemberLeave       Action = "member_leave"
	ActionMemberRolesUpdate Action = "member_roles_update"
	ActionMemberNickUpdate  Action = "member_nick_update"
	ActionMemberBan         Action = "member_ban"
	ActionMemberUnban       Action = "member_unban"
	ActionVoiceJoin         Action = "voice_join"
	ActionVoiceLeave        Action = "voice_leave"
	ActionVoiceMove         Action = "voice_move"
	ActionChannelCreate     Action = "channel_create"
	ActionChannelDelete     Action = "channel_delete"
)

// Moderation actions reported by other subsystems.
const (
	ActionMute   Action = "mute"
	ActionUnmute Action = "unmute"
	ActionKick   Action = "kick"
	ActionBan    Action = "ban"
	ActionUnban  Action = "unban"
	ActionWarn   Action = "warn"
	ActionUnwarn Action = "unwarn"
	ActionClear  Action = "clear"
)

// Ticket lifecycle actions.
const (
	ActionTicketCreate Action = "ticket_create"
	ActionTicketClose  Action = "ticket_close"
	ActionTicketAccept Action = "ticket_accept"
)

// Temporary voice channel actions.
const (
	ActionTempVoiceCreate   Action = "tempvoice_create"
	ActionTempVoiceDelete   Action = "tempvoice_delete"
	ActionTempVoiceLock     Action = "tempvoice_lock"
	ActionTempVoiceUnlock   Action = "tempvoice_unlock"
	ActionTempVoiceTransfer Action = "tempvoice_transfer"
)

// String returns the stored identifier.
func (a Action) String() string {
	return string(a)
}

// ActionFamily groups actions that share a notification style.
type ActionFamily int

const (
	// FamilyUnknown is used for identifiers outside the known set.
	FamilyUnknown ActionFamily = iota
	// FamilyGuild covers events observed from the gateway.
	FamilyGuild
	// FamilyModeration covers actions taken by moderators.
	FamilyModeration
	// FamilyTicket covers ticket lifecycle actions.
	FamilyTicket
	// FamilyTempVoice covers temporary voice channel actions.
	FamilyTempVoice
)

// Family returns the family the action belongs to.
func (a Action) Family() ActionFamily {
	switch a {
	case ActionMessageDelete, ActionMessageEdit, ActionMemberJoin, ActionMemberLeave,
		ActionMemberRolesUpdate, ActionMemberNickUpdate, ActionMemberBan, ActionMemberUnban,
		ActionVoiceJoin, ActionVoiceLeave, ActionVoiceMove, ActionChannelCreate, ActionChannelDelete:
		return FamilyGuild
	case ActionMute, ActionUnmute, ActionKick, ActionBan, ActionUnban, ActionWarn, ActionUnwarn, ActionClear:
		return FamilyModeration
	case ActionTicketCreate, ActionTicketClose, ActionTicketAccept:
		return FamilyTicket
	case ActionTempVoiceCreate, ActionTempVoiceDelete, ActionTempVoiceLock,
		ActionTempVoiceUnlock, ActionTempVoiceTransfer:
		return FamilyTempVoice
	default:
		return FamilyUnknown
	}
}

// IsKnown reports whether the action is one of the defined identifiers.
func (a Action) IsKnown() bool {
	return a.Family() != FamilyUnknown
}
