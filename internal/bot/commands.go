package bot

import (
	"context"
	"slices"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/ticket"
)

// Slash command names.
const (
	TicketSetupCommandName  = "ticket_setup"
	LogSetupCommandName     = "lsetup"
	TicketConfigCommandName = "ticket_config"
	LogsCommandName         = "logs"
)

// Options of the ticket_config command.
const (
	optMaxTickets     = "max_tickets"
	optCooldown       = "cooldown"
	optSupportRole    = "support_role"
	optLogChannel     = "log_channel"
	optWelcomeMessage = "welcome_message"
	optTypes          = "types"
	optRequireTopic   = "require_topic"
	optAutoCloseHours = "auto_close_hours"
	optUser           = "user"

	recentLogLimit    = 10
	maxWelcomeMessage = 1000
)

func commandDefinitions() []discord.ApplicationCommandCreate {
	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        TicketSetupCommandName,
			Description: "Create the ticket category and intake channel",
		},
		discord.SlashCommandCreate{
			Name:        LogSetupCommandName,
			Description: "Create a private channel for the server's audit log",
		},
		discord.SlashCommandCreate{
			Name:        TicketConfigCommandName,
			Description: "Show or change the ticket settings",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        optMaxTickets,
					Description: "Maximum open tickets per user",
				},
				discord.ApplicationCommandOptionInt{
					Name:        optCooldown,
					Description: "Seconds between two tickets from one user",
				},
				discord.ApplicationCommandOptionRole{
					Name:        optSupportRole,
					Description: "Role pinged on and given access to new tickets",
				},
				discord.ApplicationCommandOptionChannel{
					Name:         optLogChannel,
					Description:  "Channel that receives ticket open and close notices",
					ChannelTypes: []discord.ChannelType{discord.ChannelTypeGuildText},
				},
				discord.ApplicationCommandOptionString{
					Name:        optWelcomeMessage,
					Description: "Message shown at the top of new tickets",
				},
				discord.ApplicationCommandOptionString{
					Name:        optTypes,
					Description: "Comma separated ticket types, e.g. general,bug,report",
				},
				discord.ApplicationCommandOptionBool{
					Name:        optRequireTopic,
					Description: "Whether tickets need a topic",
				},
				discord.ApplicationCommandOptionInt{
					Name:        optAutoCloseHours,
					Description: "Hours of inactivity before a ticket counts as stale",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        LogsCommandName,
			Description: "Show a user's most recent log records",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        optUser,
					Description: "User to look up",
					Required:    true,
				},
			},
		},
	}
}

func (b *Bot) handleTicketSetup(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
) (*response, error) {
	guildID, err := requireAdmin(event)
	if err != nil {
		return nil, err
	}

	cfg, err := b.tickets.Setup(ctx, guildID)
	if err != nil {
		return nil, err
	}

	return textResponse("The ticket system is ready in %s.", notify.ChannelMention(cfg.CreateChannelID)), nil
}

func (b *Bot) handleLogSetup(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
) (*response, error) {
	guildID, err := requireAdmin(event)
	if err != nil {
		return nil, err
	}

	channelID, err := b.recorder.SetupLogging(ctx, guildID, event.User().ID)
	if err != nil {
		return nil, err
	}

	return textResponse("Logging is set up in %s.", notify.ChannelMention(channelID)), nil
}

func (b *Bot) handleTicketConfig(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
) (*response, error) {
	guildID, err := requireAdmin(event)
	if err != nil {
		return nil, err
	}

	update, err := configUpdate(event.SlashCommandInteractionData())
	if err != nil {
		return nil, err
	}

	if update.IsEmpty() {
		cfg, err := b.tickets.Config(ctx, guildID)
		if err != nil {
			return nil, err
		}
		return embedResponse(notify.TicketConfigSummary(cfg)), nil
	}

	cfg, err := b.tickets.UpdateConfig(ctx, guildID, update)
	if err != nil {
		return nil, err
	}

	return embedResponse(notify.TicketConfigSummary(cfg)), nil
}

// configUpdate reads the options given to ticket_config into a partial update.
func configUpdate(data discord.SlashCommandInteractionData) (types.TicketConfigUpdate, error) {
	var update types.TicketConfigUpdate

	if v, ok := data.OptInt(optMaxTickets); ok {
		if v < 1 {
			return update, invalidOption("The ticket limit must be at least 1.")
		}
		update.MaxTicketsPerUser = &v
	}
	if v, ok := data.OptInt(optCooldown); ok {
		if v < 0 {
			return update, invalidOption("The cooldown cannot be negative.")
		}
		update.TicketCooldown = &v
	}
	if v, ok := data.OptInt(optAutoCloseHours); ok {
		if v < 0 {
			return update, invalidOption("The auto close time cannot be negative.")
		}
		update.AutoCloseHours = &v
	}
	if role, ok := data.OptRole(optSupportRole); ok {
		id := role.ID
		update.SupportRoleID = &id
	}
	if channel, ok := data.OptChannel(optLogChannel); ok {
		id := channel.ID
		update.LogChannelID = &id
	}
	if v, ok := data.OptString(optWelcomeMessage); ok {
		v = strings.TrimSpace(v)
		if v == "" || len([]rune(v)) > maxWelcomeMessage {
			return update, invalidOption("The welcome message must be between 1 and %d characters.", maxWelcomeMessage)
		}
		update.WelcomeMessage = &v
	}
	if v, ok := data.OptString(optTypes); ok {
		update.TicketTypes = parseTypeList(v)
	}
	if v, ok := data.OptBool(optRequireTopic); ok {
		update.RequireTopic = &v
	}

	return update, nil
}

// parseTypeList normalises a user-entered type list to lowercase identifiers.
func parseTypeList(raw string) []string {
	var kinds []string
	for _, kind := range types.ParseTicketTypes(raw) {
		kind = strings.ToLower(strings.ReplaceAll(kind, " ", "_"))
		if !slices.Contains(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func (b *Bot) handleLogs(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
) (*response, error) {
	guildID, err := requireAdmin(event)
	if err != nil {
		return nil, err
	}

	user, ok := event.SlashCommandInteractionData().OptUser(optUser)
	if !ok {
		return nil, invalidOption("Choose a user to look up.")
	}

	records, err := b.recorder.QueryRecentByUser(ctx, guildID, user.ID, recentLogLimit)
	if err != nil {
		return nil, err
	}

	return embedResponse(notify.LogHistory(user.ID, records)), nil
}

// registerRoutes fills the dispatch tables.
func (b *Bot) registerRoutes() {
	b.commands.handle(TicketSetupCommandName, b.handleTicketSetup)
	b.commands.handle(LogSetupCommandName, b.handleLogSetup)
	b.commands.handle(TicketConfigCommandName, b.handleTicketConfig)
	b.commands.handle(LogsCommandName, b.handleLogs)

	b.components.handlePrefix(ticket.CreateButtonPrefix, b.handleCreateTicket)
	b.components.handle(ticket.AcceptButtonID, b.handleAcceptTicket)
	b.components.handle(ticket.TranscriptButtonID, b.handleTranscript)
	b.components.handle(ticket.CloseButtonID, b.handleCloseButton)
	b.selfResponding[ticket.CloseButtonID] = true

	b.modals.handle(ticket.CloseModalID, b.handleCloseModal)
}
