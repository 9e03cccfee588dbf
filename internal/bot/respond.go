package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/audit"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/platform"
	"github.com/robalyx/warden/internal/ticket"
)

var (
	errNotInGuild        = errors.New("interaction outside a guild")
	errMissingPermission = errors.New("missing administrator permission")
	errNotTicketChannel  = errors.New("channel is not an open ticket")
)

// optionError is a command option the user has to correct.
type optionError struct {
	message string
}

func (e *optionError) Error() string {
	return e.message
}

func invalidOption(format string, args ...any) error {
	return &optionError{message: fmt.Sprintf(format, args...)}
}

const genericFailure = "Something went wrong. Please try again later."

// commonEvent is the part of every interaction event the handlers rely on.
type commonEvent interface {
	Client() bot.Client
	ApplicationID() snowflake.ID
	Token() string
	User() discord.User
	GuildID() *snowflake.ID
	ChannelID() snowflake.ID
	Member() *discord.ResolvedMember
}

// response is what a handler sends back. After runs once the response is
// delivered; its error is reported to the user as a follow-up.
type response struct {
	update discord.MessageUpdate
	after  func(ctx context.Context) error
}

func textResponse(format string, args ...any) *response {
	return &response{
		update: discord.NewMessageUpdateBuilder().
			SetContent(fmt.Sprintf(format, args...)).
			Build(),
	}
}

func embedResponse(n *notify.Notification) *response {
	return &response{
		update: discord.NewMessageUpdateBuilder().
			SetEmbeds(n.Embed()).
			Build(),
	}
}

// userMessage turns a handler error into the text shown to the user.
// The second result reports whether the error was expected; unexpected
// errors are logged.
func userMessage(err error) (string, bool) {
	var (
		rateLimited *ticket.RateLimitedError
		capExceeded *ticket.CapExceededError
		accepted    *ticket.AlreadyAcceptedError
		option      *optionError
	)

	switch {
	case errors.As(err, &rateLimited):
		return fmt.Sprintf("Please wait %d seconds before creating another ticket.", rateLimited.Remaining), true
	case errors.As(err, &capExceeded):
		return fmt.Sprintf("You already have %d open tickets. The limit is %d.", capExceeded.Open, capExceeded.Max), true
	case errors.As(err, &accepted):
		if accepted.SameModerator {
			return "You have already accepted this ticket.", true
		}
		return fmt.Sprintf("This ticket was already accepted by %s.", notify.UserMention(accepted.ModeratorID)), true
	case errors.Is(err, ticket.ErrAlreadyConfigured):
		return "The ticket system is already set up in this server.", true
	case errors.Is(err, audit.ErrAlreadyConfigured):
		return "Logging is already set up in this server.", true
	case errors.Is(err, ticket.ErrNotConfigured):
		return "The ticket system is not set up. An administrator needs to run /ticket_setup.", true
	case errors.Is(err, ticket.ErrNotFound), errors.Is(err, errNotTicketChannel):
		return "This ticket does not exist or is already closed.", true
	case errors.Is(err, ticket.ErrUnknownTicketType):
		return "This ticket type is not available.", true
	case errors.Is(err, ticket.ErrTimedOut):
		return "The close confirmation expired. Press Close again.", true
	case errors.Is(err, errMissingPermission):
		return "You need the Administrator permission to do this.", true
	case errors.Is(err, errNotInGuild):
		return "This can only be used in a server.", true
	case errors.As(err, &option):
		return option.message, true
	case errors.Is(err, platform.ErrUnavailable):
		return "I am missing the permissions to do that.", false
	default:
		return genericFailure, false
	}
}

func guildOf(event commonEvent) (snowflake.ID, error) {
	guildID := event.GuildID()
	if guildID == nil {
		return 0, errNotInGuild
	}
	return *guildID, nil
}

// requireAdmin returns the guild of an interaction made by an administrator.
func requireAdmin(event commonEvent) (snowflake.ID, error) {
	guildID, err := guildOf(event)
	if err != nil {
		return 0, err
	}
	if !isAdmin(event.Member()) {
		return 0, errMissingPermission
	}
	return guildID, nil
}

func isAdmin(member *discord.ResolvedMember) bool {
	return member != nil && member.Permissions.Has(discord.PermissionAdministrator)
}
