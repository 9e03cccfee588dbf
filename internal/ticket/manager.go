// Package ticket implements the support ticket workflow: intake setup,
// creation with cooldowns and caps, acceptance, transcripts and closure.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/audit"
	"github.com/robalyx/warden/internal/database"
	"github.com/robalyx/warden/internal/database/models"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/platform"
	"github.com/robalyx/warden/pkg/utils"
	"go.uber.org/zap"
)

const (
	// DefaultGraceDelay is how long a closed ticket channel stays before deletion.
	DefaultGraceDelay = 5 * time.Second

	setupCategoryName = "🎫 Tickets"
	setupChannelName  = "create-ticket"
	setupChannelTopic = "Open a ticket with the buttons below"
)

// CreateRequest describes a ticket a user asked to open.
type CreateRequest struct {
	GuildID    snowflake.ID
	UserID     snowflake.ID
	Username   string
	AvatarURL  string
	TicketType string
}

// CreateResult is the outcome of a successful Create.
type CreateResult struct {
	Ticket    *types.Ticket
	ChannelID snowflake.ID
}

// CloseRequest describes a ticket closure.
type CloseRequest struct {
	TicketID    int64
	ModeratorID snowflake.ID
	Reason      string
	// GuildName is shown in the transcript sent to the author.
	GuildName string
}

// Options tunes the manager. Zero values select the defaults.
type Options struct {
	GraceDelay time.Duration
	Now        func() time.Time
	Sleep      func(time.Duration)
}

type userKey struct {
	guildID snowflake.ID
	userID  snowflake.ID
}

// Manager runs the ticket lifecycle against the store and the platform.
type Manager struct {
	tickets     *models.TicketModel
	configs     *models.TicketConfigModel
	transcripts *models.TranscriptModel
	recorder    *audit.Recorder
	platform    Platform
	cooldowns   CooldownStore
	logger      *zap.Logger

	userLocks   *utils.KeyedMutex[userKey]
	ticketLocks *utils.KeyedMutex[int64]
	guildLocks  *utils.KeyedMutex[snowflake.ID]

	graceDelay time.Duration
	now        func() time.Time
	sleep      func(time.Duration)
}

// NewManager creates a Manager.
func NewManager(
	db database.Client, recorder *audit.Recorder, p Platform, cooldowns CooldownStore, logger *zap.Logger, opts Options,
) *Manager {
	m := &Manager{
		tickets:     db.Model().Ticket(),
		configs:     db.Model().TicketConfig(),
		transcripts: db.Model().Transcript(),
		recorder:    recorder,
		platform:    p,
		cooldowns:   cooldowns,
		logger:      logger.Named("ticket"),
		userLocks:   utils.NewKeyedMutex[userKey](),
		ticketLocks: utils.NewKeyedMutex[int64](),
		guildLocks:  utils.NewKeyedMutex[snowflake.ID](),
		graceDelay:  opts.GraceDelay,
		now:         opts.Now,
		sleep:       opts.Sleep,
	}

	if m.graceDelay == 0 {
		m.graceDelay = DefaultGraceDelay
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.sleep == nil {
		m.sleep = time.Sleep
	}

	return m
}

// Config returns the guild's ticket configuration, creating defaults on first use.
func (m *Manager) Config(ctx context.Context, guildID snowflake.ID) (*types.TicketConfig, error) {
	return m.configs.Get(ctx, guildID)
}

// UpdateConfig applies a partial configuration update.
func (m *Manager) UpdateConfig(
	ctx context.Context, guildID snowflake.ID, update types.TicketConfigUpdate,
) (*types.TicketConfig, error) {
	return m.configs.Update(ctx, guildID, update)
}

// Get returns a ticket by id.
func (m *Manager) Get(ctx context.Context, ticketID int64) (*types.Ticket, error) {
	ticket, err := m.tickets.GetByID(ctx, ticketID)
	if errors.Is(err, types.ErrTicketNotFound) {
		return nil, ErrNotFound
	}
	return ticket, err
}

// FindOpenByChannel returns the open ticket that owns a channel.
func (m *Manager) FindOpenByChannel(ctx context.Context, channelID snowflake.ID) (*types.Ticket, error) {
	ticket, err := m.tickets.GetOpenByChannel(ctx, channelID)
	if errors.Is(err, types.ErrTicketNotFound) {
		return nil, ErrNotFound
	}
	return ticket, err
}

// Setup creates the ticket category and intake channel for a guild and posts
// the type selection message.
func (m *Manager) Setup(ctx context.Context, guildID snowflake.ID) (*types.TicketConfig, error) {
	unlock := m.guildLocks.Lock(guildID)
	defer unlock()

	config, err := m.configs.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if config.CategoryID != 0 {
		return nil, ErrAlreadyConfigured
	}

	categoryID, err := m.platform.CreateCategory(ctx, guildID, platform.ChannelSpec{Name: setupCategoryName})
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket category: %w", err)
	}

	channelID, err := m.platform.CreateTextChannel(ctx, guildID, platform.ChannelSpec{
		Name:     setupChannelName,
		Topic:    setupChannelTopic,
		ParentID: categoryID,
	})
	if err != nil {
		m.deleteChannel(ctx, categoryID)
		return nil, fmt.Errorf("failed to create intake channel: %w", err)
	}

	// Nothing is persisted until the panel is up, so a failed setup can be retried.
	messageID, err := m.platform.SendMessage(ctx, channelID, PanelMessage(config.Types()))
	if err != nil {
		m.deleteChannel(ctx, channelID)
		m.deleteChannel(ctx, categoryID)
		return nil, fmt.Errorf("failed to post ticket panel: %w", err)
	}

	config, err = m.configs.Update(ctx, guildID, types.TicketConfigUpdate{
		CategoryID:      &categoryID,
		CreateChannelID: &channelID,
		CreateMessageID: &messageID,
	})
	if err != nil {
		m.deleteChannel(ctx, channelID)
		m.deleteChannel(ctx, categoryID)
		return nil, err
	}

	m.logger.Info("Ticket system configured",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("channelID", uint64(channelID)))

	return config, nil
}

// Create opens a ticket for a user. Validation and the insert run under a
// per-user lock so concurrent presses cannot exceed the cap or skip the cooldown.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	key := userKey{guildID: req.GuildID, userID: req.UserID}
	unlock := m.userLocks.Lock(key)
	defer unlock()

	config, err := m.configs.Get(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	cooldownKey := CooldownKey{GuildID: req.GuildID, UserID: req.UserID}

	if err := m.checkCooldown(ctx, cooldownKey, config.Cooldown(), now); err != nil {
		return nil, err
	}

	open, err := m.tickets.CountOpenByAuthor(ctx, req.GuildID, req.UserID)
	if err != nil {
		return nil, err
	}
	if open >= config.MaxTicketsPerUser {
		return nil, &CapExceededError{Open: open, Max: config.MaxTicketsPerUser}
	}

	if config.CategoryID == 0 {
		return nil, ErrNotConfigured
	}
	exists, err := m.platform.ChannelExists(ctx, config.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ticket category: %w", err)
	}
	if !exists {
		return nil, ErrNotConfigured
	}

	if !config.HasType(req.TicketType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTicketType, req.TicketType)
	}

	var roleIDs []snowflake.ID
	if config.SupportRoleID != 0 {
		ok, err := m.platform.RoleExists(ctx, req.GuildID, config.SupportRoleID)
		if err != nil {
			m.logger.Warn("Failed to check support role",
				zap.Uint64("guildID", uint64(req.GuildID)),
				zap.Error(err))
		} else if ok {
			roleIDs = append(roleIDs, config.SupportRoleID)
		}
	}

	channelID, err := m.platform.CreateTextChannel(ctx, req.GuildID, platform.ChannelSpec{
		Name:       utils.ChannelName("ticket", req.Username, now.Format("0201")),
		Topic:      fmt.Sprintf("Ticket of %s | Type: %s", req.Username, req.TicketType),
		ParentID:   config.CategoryID,
		Overwrites: platform.PrivateOverwrites(req.GuildID, []snowflake.ID{req.UserID}, roleIDs),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket channel: %w", err)
	}

	ticket := &types.Ticket{
		GuildID:    req.GuildID,
		AuthorID:   req.UserID,
		ChannelID:  channelID,
		TicketType: req.TicketType,
		CreatedAt:  now,
	}
	if err := m.tickets.Create(ctx, ticket); err != nil {
		m.deleteChannel(ctx, channelID)
		return nil, err
	}

	if err := m.cooldowns.Mark(ctx, cooldownKey, now, config.Cooldown()); err != nil {
		m.logger.Error("Failed to store ticket cooldown",
			zap.Uint64("guildID", uint64(req.GuildID)),
			zap.Uint64("userID", uint64(req.UserID)),
			zap.Error(err))
	}

	welcome := notify.TicketWelcome(ticket.ID, req.UserID, req.AvatarURL, req.TicketType, config.WelcomeMessage, now)
	m.send(ctx, channelID, WelcomeMessage(welcome))
	m.send(ctx, channelID, pingMessage(req.UserID, roleIDs))

	if err := m.recorder.LogTicketAction(ctx, req.GuildID, req.UserID, enum.ActionTicketCreate,
		ticket.ID, "Type: "+req.TicketType); err != nil {
		m.logger.Error("Failed to record ticket creation", zap.Int64("ticketID", ticket.ID), zap.Error(err))
	}

	if config.LogChannelID != 0 {
		m.recorder.DeliverTo(ctx, config.LogChannelID,
			notify.TicketOpenedLog(ticket.ID, req.UserID, channelID, req.TicketType, now))
	}

	m.logger.Info("Ticket created",
		zap.Int64("ticketID", ticket.ID),
		zap.Uint64("guildID", uint64(req.GuildID)),
		zap.Uint64("userID", uint64(req.UserID)),
		zap.String("type", req.TicketType))

	return &CreateResult{Ticket: ticket, ChannelID: channelID}, nil
}

// checkCooldown fails with RateLimitedError while the user's cooldown is active.
func (m *Manager) checkCooldown(ctx context.Context, key CooldownKey, cooldown time.Duration, now time.Time) error {
	if cooldown <= 0 {
		return nil
	}

	last, ok, err := m.cooldowns.Last(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	remaining := cooldown - now.Sub(last)
	if remaining <= 0 {
		return nil
	}

	return &RateLimitedError{Remaining: int(math.Ceil(remaining.Seconds()))}
}

// Accept assigns a moderator to an open ticket. Only the first caller wins.
func (m *Manager) Accept(ctx context.Context, ticketID int64, moderatorID snowflake.ID) (*types.Ticket, error) {
	unlock := m.ticketLocks.Lock(ticketID)
	defer unlock()

	accepted, err := m.tickets.SetModerator(ctx, ticketID, moderatorID)
	if err != nil {
		return nil, err
	}

	ticket, err := m.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !accepted {
		if !ticket.IsOpen() {
			return nil, ErrNotFound
		}
		return nil, &AlreadyAcceptedError{
			ModeratorID:   ticket.ModeratorID,
			SameModerator: ticket.ModeratorID == moderatorID,
		}
	}

	m.send(ctx, ticket.ChannelID, EmbedMessage(notify.TicketAccepted(moderatorID)))

	if err := m.recorder.LogTicketAction(ctx, ticket.GuildID, moderatorID, enum.ActionTicketAccept,
		ticket.ID, "Moderator: "+notify.UserMention(moderatorID)); err != nil {
		m.logger.Error("Failed to record ticket acceptance", zap.Int64("ticketID", ticketID), zap.Error(err))
	}

	return ticket, nil
}

// Transcript captures a fresh snapshot of an open ticket's channel and stores it.
func (m *Manager) Transcript(ctx context.Context, ticketID int64) (string, error) {
	unlock := m.ticketLocks.Lock(ticketID)
	defer unlock()

	ticket, err := m.Get(ctx, ticketID)
	if err != nil {
		return "", err
	}
	if !ticket.IsOpen() {
		return "", ErrNotFound
	}

	return m.captureTranscript(ctx, ticket)
}

// Close archives and closes an open ticket, notifies its author and removes
// the channel after the grace delay. A closed ticket fails with ErrNotFound
// before any side effect.
func (m *Manager) Close(ctx context.Context, req CloseRequest) error {
	unlock := m.ticketLocks.Lock(req.TicketID)
	defer unlock()

	reason := NormalizeReason(req.Reason)

	ticket, err := m.Get(ctx, req.TicketID)
	if err != nil {
		return err
	}
	if !ticket.IsOpen() {
		return ErrNotFound
	}

	transcript, err := m.captureTranscript(ctx, ticket)
	if err != nil {
		return err
	}

	closedAt := m.now()
	closed, err := m.tickets.MarkClosed(ctx, ticket.ID, reason, closedAt)
	if err != nil {
		return err
	}
	if !closed {
		return ErrNotFound
	}

	closure := notify.TicketClosed(ticket.ID, req.ModeratorID, reason, closedAt)
	m.send(ctx, ticket.ChannelID, EmbedMessage(closure))

	dm := TranscriptMessage(ticket.ID, transcript, notify.TicketTranscriptDM(ticket.ID, req.GuildName, reason))
	if err := m.platform.SendDM(ctx, ticket.AuthorID, dm); err != nil {
		m.logger.Info("Transcript not delivered to author",
			zap.Int64("ticketID", ticket.ID),
			zap.Error(fmt.Errorf("%w: %w", ErrDeliveryFailure, err)))
	}

	if err := m.recorder.LogTicketAction(ctx, ticket.GuildID, req.ModeratorID, enum.ActionTicketClose,
		ticket.ID, "Reason: "+reason); err != nil {
		m.logger.Error("Failed to record ticket closure", zap.Int64("ticketID", ticket.ID), zap.Error(err))
	}

	config, err := m.configs.Get(ctx, ticket.GuildID)
	if err != nil {
		m.logger.Error("Failed to load ticket config", zap.Uint64("guildID", uint64(ticket.GuildID)), zap.Error(err))
	} else if config.LogChannelID != 0 {
		m.recorder.DeliverTo(ctx, config.LogChannelID, closure)
	}

	m.sleep(m.graceDelay)
	m.deleteChannel(context.WithoutCancel(ctx), ticket.ChannelID)

	m.logger.Info("Ticket closed",
		zap.Int64("ticketID", ticket.ID),
		zap.Uint64("moderatorID", uint64(req.ModeratorID)))

	return nil
}

// captureTranscript formats the channel history and stores it as a new snapshot.
func (m *Manager) captureTranscript(ctx context.Context, ticket *types.Ticket) (string, error) {
	history, err := m.platform.FetchHistory(ctx, ticket.ChannelID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch ticket history: %w", err)
	}

	content := FormatTranscript(history)
	if _, err := m.transcripts.Save(ctx, ticket.ID, content); err != nil {
		return "", err
	}

	return content, nil
}

// send posts a message and logs failures.
func (m *Manager) send(ctx context.Context, channelID snowflake.ID, msg discord.MessageCreate) {
	if _, err := m.platform.SendMessage(ctx, channelID, msg); err != nil {
		m.logger.Warn("Failed to send ticket message",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Error(err))
	}
}

// deleteChannel removes a channel and logs failures without retrying.
func (m *Manager) deleteChannel(ctx context.Context, channelID snowflake.ID) {
	if err := m.platform.DeleteChannel(ctx, channelID); err != nil {
		m.logger.Error("Failed to delete channel",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Error(err))
	}
}
