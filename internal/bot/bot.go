// Package bot connects the ticket workflow and the audit trail to Discord.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/robalyx/warden/internal/audit"
	"github.com/robalyx/warden/internal/guildlog"
	"github.com/robalyx/warden/internal/setup"
	"github.com/robalyx/warden/internal/ticket"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const handlerTimeout = 2 * time.Minute

type (
	commandHandler   func(ctx context.Context, event *events.ApplicationCommandInteractionCreate) (*response, error)
	componentHandler func(ctx context.Context, event *events.ComponentInteractionCreate, payload string) (*response, error)
	modalHandler     func(ctx context.Context, event *events.ModalSubmitInteractionCreate) (*response, error)
)

// Bot owns the Discord client and routes interactions and guild events to
// the ticket manager and the audit recorder.
type Bot struct {
	client   bot.Client
	logger   *zap.Logger
	recorder *audit.Recorder
	tickets  *ticket.Manager
	guildLog *guildlog.Service
	pending  *utils.TTLMap[pendingClose, int64]
	pool     *pool.Pool
	ctx      context.Context
	cancel   context.CancelFunc

	commands   *router[commandHandler]
	components *router[componentHandler]
	modals     *router[modalHandler]
	// selfResponding components answer the interaction themselves, e.g. by opening a modal.
	selfResponding map[string]bool
}

// New creates the Discord client and wires every service to it.
func New(app *setup.App) (*Bot, error) {
	ctx, cancel := context.WithCancel(context.Background())
	ticketCfg := app.Config.Bot.Tickets

	b := &Bot{
		logger:         app.Logger.Named("bot"),
		pending:        utils.NewTTLMap[pendingClose, int64](time.Duration(ticketCfg.CloseTimeoutS) * time.Second),
		pool:           pool.New().WithMaxGoroutines(max(ticketCfg.HandlerConcurrency, 1)),
		ctx:            ctx,
		cancel:         cancel,
		commands:       newRouter[commandHandler](),
		components:     newRouter[componentHandler](),
		modals:         newRouter[modalHandler](),
		selfResponding: make(map[string]bool),
	}

	client, err := disgo.New(app.Config.Bot.Discord.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMembers,
				gateway.IntentGuildModeration,
				gateway.IntentGuildVoiceStates,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(
				cache.FlagGuilds,
				cache.FlagChannels,
				cache.FlagRoles,
				cache.FlagMembers,
				cache.FlagMessages,
				cache.FlagVoiceStates,
			),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
			OnComponentInteraction:          b.handleComponentInteraction,
			OnModalSubmit:                   b.handleModalSubmit,
			OnGuildMessageDelete:            b.onMessageDelete,
			OnGuildMessageUpdate:            b.onMessageUpdate,
			OnGuildMemberJoin:               b.onMemberJoin,
			OnGuildMemberLeave:              b.onMemberLeave,
			OnGuildMemberUpdate:             b.onMemberUpdate,
			OnGuildBan:                      b.onBan,
			OnGuildUnban:                    b.onUnban,
			OnGuildVoiceStateUpdate:         b.onVoiceStateUpdate,
			OnGuildChannelCreate:            b.onChannelCreate,
			OnGuildChannelDelete:            b.onChannelDelete,
		}),
	)
	if err != nil {
		cancel()
		b.pending.Close()
		return nil, fmt.Errorf("failed to create Discord client: %w", err)
	}

	p := newRestPlatform(client)
	b.client = client
	b.recorder = audit.NewRecorder(app.DB, p, app.Logger)
	b.tickets = ticket.NewManager(app.DB, b.recorder, p, app.Cooldowns, app.Logger, ticket.Options{
		GraceDelay: time.Duration(ticketCfg.GraceDelayMS) * time.Millisecond,
	})
	b.guildLog = guildlog.NewService(b.recorder, p, app.Logger)

	b.registerRoutes()
	return b, nil
}

// Start registers the slash commands and opens the gateway connection.
func (b *Bot) Start() error {
	b.logger.Info("Registering commands")

	if _, err := b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), commandDefinitions()); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot")
	return b.client.OpenGateway(b.ctx)
}

// Close stops accepting work, waits for running handlers and closes the gateway.
func (b *Bot) Close() {
	b.logger.Info("Closing bot")

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.client.Close(closeCtx)
	b.pool.Wait()
	b.cancel()
	b.pending.Close()
}

// submit runs fn on the handler pool, recovering panics.
func (b *Bot) submit(name string, fn func(ctx context.Context)) {
	b.pool.Go(func() {
		ctx, cancel := context.WithTimeout(b.ctx, handlerTimeout)
		defer cancel()

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in handler", zap.String("handler", name), zap.Any("panic", r))
			}
			b.logger.Debug("Handler finished",
				zap.String("handler", name),
				zap.Duration("duration", time.Since(start)))
		}()

		fn(ctx)
	})
}

// handleApplicationCommandInteraction defers a private response and runs the
// command on the handler pool.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	name := event.SlashCommandInteractionData().CommandName()

	if err := event.DeferCreateMessage(true); err != nil {
		b.logger.Error("Failed to defer create message", zap.Error(err))
		return
	}

	b.submit("command:"+name, func(ctx context.Context) {
		defer b.recoverInteraction(event)

		handler, _, ok := b.commands.lookup(name)
		if !ok {
			b.finish(ctx, event, textResponse("This command is not available."), nil)
			return
		}

		resp, err := handler(ctx, event)
		b.finish(ctx, event, resp, err)
	})
}

// handleComponentInteraction routes button presses. Most are deferred as a
// private response; self-responding components answer on their own.
func (b *Bot) handleComponentInteraction(event *events.ComponentInteractionCreate) {
	customID := event.Data.CustomID()

	handler, payload, ok := b.components.lookup(customID)
	if !ok {
		b.logger.Debug("Unknown component", zap.String("customID", customID))
		return
	}

	if b.selfResponding[customID] {
		b.submit("component:"+customID, func(ctx context.Context) {
			defer b.recoverInteraction(event)

			if _, err := handler(ctx, event, payload); err != nil {
				message, expected := userMessage(err)
				b.logFailure(customID, err, expected)
				if err := event.CreateMessage(discord.NewMessageCreateBuilder().
					SetContent(message).
					SetEphemeral(true).
					Build()); err != nil {
					b.logger.Error("Failed to respond to component", zap.Error(err))
				}
			}
		})
		return
	}

	if err := event.DeferCreateMessage(true); err != nil {
		b.logger.Error("Failed to defer create message", zap.Error(err))
		return
	}

	b.submit("component:"+customID, func(ctx context.Context) {
		defer b.recoverInteraction(event)

		resp, err := handler(ctx, event, payload)
		b.finish(ctx, event, resp, err)
	})
}

// handleModalSubmit defers a private response and runs the modal handler.
func (b *Bot) handleModalSubmit(event *events.ModalSubmitInteractionCreate) {
	customID := event.Data.CustomID

	handler, _, ok := b.modals.lookup(customID)
	if !ok {
		b.logger.Debug("Unknown modal", zap.String("customID", customID))
		return
	}

	if err := event.DeferCreateMessage(true); err != nil {
		b.logger.Error("Failed to defer create message", zap.Error(err))
		return
	}

	b.submit("modal:"+customID, func(ctx context.Context) {
		defer b.recoverInteraction(event)

		resp, err := handler(ctx, event)
		b.finish(ctx, event, resp, err)
	})
}

// finish edits the deferred response with the handler's result, then runs its
// follow-up work.
func (b *Bot) finish(ctx context.Context, event commonEvent, resp *response, err error) {
	if err != nil {
		message, expected := userMessage(err)
		b.logFailure("interaction", err, expected)
		resp = textResponse("%s", message)
	}
	if resp == nil {
		resp = textResponse("Done.")
	}

	if _, err := event.Client().Rest().UpdateInteractionResponse(
		event.ApplicationID(), event.Token(), resp.update,
	); err != nil {
		b.logger.Error("Failed to update interaction response", zap.Error(err))
	}

	if resp.after == nil {
		return
	}

	if err := resp.after(ctx); err != nil {
		message, expected := userMessage(err)
		b.logFailure("follow-up", err, expected)

		if _, err := event.Client().Rest().CreateFollowupMessage(
			event.ApplicationID(), event.Token(),
			discord.NewMessageCreateBuilder().SetContent(message).SetEphemeral(true).Build(),
		); err != nil {
			b.logger.Error("Failed to send follow-up", zap.Error(err))
		}
	}
}

// recoverInteraction reports a panic to the user before submit logs it.
func (b *Bot) recoverInteraction(event commonEvent) {
	if r := recover(); r != nil {
		update := discord.NewMessageUpdateBuilder().SetContent(genericFailure).Build()
		_, _ = event.Client().Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(), update)
		panic(r)
	}
}

func (b *Bot) logFailure(source string, err error, expected bool) {
	if expected {
		b.logger.Debug("Interaction rejected", zap.String("source", source), zap.Error(err))
		return
	}
	b.logger.Error("Interaction failed", zap.String("source", source), zap.Error(err))
}
