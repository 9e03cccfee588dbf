package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/ticket"
)

// pendingClose identifies a close confirmation awaiting its modal.
type pendingClose struct {
	channelID snowflake.ID
	userID    snowflake.ID
}

func (b *Bot) handleCreateTicket(
	ctx context.Context, event *events.ComponentInteractionCreate, ticketType string,
) (*response, error) {
	guildID, err := guildOf(event)
	if err != nil {
		return nil, err
	}

	user := event.User()
	result, err := b.tickets.Create(ctx, ticket.CreateRequest{
		GuildID:    guildID,
		UserID:     user.ID,
		Username:   user.Username,
		AvatarURL:  user.EffectiveAvatarURL(),
		TicketType: ticketType,
	})
	if err != nil {
		return nil, err
	}

	return textResponse("Your ticket is open: %s", notify.ChannelMention(result.ChannelID)), nil
}

func (b *Bot) handleAcceptTicket(
	ctx context.Context, event *events.ComponentInteractionCreate, _ string,
) (*response, error) {
	t, err := b.ticketInChannel(ctx, event)
	if err != nil {
		return nil, err
	}

	if _, err := b.tickets.Accept(ctx, t.ID, event.User().ID); err != nil {
		return nil, err
	}

	return textResponse("You accepted ticket #%d.", t.ID), nil
}

func (b *Bot) handleTranscript(
	ctx context.Context, event *events.ComponentInteractionCreate, _ string,
) (*response, error) {
	t, err := b.ticketInChannel(ctx, event)
	if err != nil {
		return nil, err
	}

	content, err := b.tickets.Transcript(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	msg := ticket.TranscriptMessage(t.ID, content, nil)
	return &response{
		update: discord.NewMessageUpdateBuilder().
			SetContent(fmt.Sprintf("Transcript of ticket #%d", t.ID)).
			AddFiles(msg.Files...).
			Build(),
	}, nil
}

// handleCloseButton remembers who asked to close the ticket and opens the
// reason modal. The confirmation expires after the configured timeout.
func (b *Bot) handleCloseButton(
	ctx context.Context, event *events.ComponentInteractionCreate, _ string,
) (*response, error) {
	t, err := b.ticketInChannel(ctx, event)
	if err != nil {
		return nil, err
	}

	b.pending.Set(pendingClose{channelID: event.ChannelID(), userID: event.User().ID}, t.ID)

	if err := event.Modal(ticket.CloseModal()); err != nil {
		return nil, err
	}
	return nil, nil
}

// handleCloseModal closes the ticket the submitter confirmed. The reply is sent
// before closing since the channel is deleted once Close returns.
func (b *Bot) handleCloseModal(
	ctx context.Context, event *events.ModalSubmitInteractionCreate,
) (*response, error) {
	t, err := b.confirmClose(ctx, pendingClose{channelID: event.ChannelID(), userID: event.User().ID})
	if err != nil {
		return nil, err
	}
	ticketID := t.ID

	reason, _ := event.Data.OptText(ticket.ReasonInputID)
	req := ticket.CloseRequest{
		TicketID:    ticketID,
		ModeratorID: event.User().ID,
		Reason:      reason,
		GuildName:   b.guildName(t.GuildID),
	}

	resp := textResponse("Closing ticket #%d. The channel will be deleted shortly.", ticketID)
	resp.after = func(ctx context.Context) error {
		// Closing outlives the interaction once the reply is out.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
		defer cancel()
		return b.tickets.Close(ctx, req)
	}
	return resp, nil
}

// confirmClose consumes the pending confirmation for key and returns its
// ticket. An expired or missing confirmation yields ErrTimedOut.
func (b *Bot) confirmClose(ctx context.Context, key pendingClose) (*types.Ticket, error) {
	ticketID, ok := b.pending.Take(key)
	if !ok {
		return nil, ticket.ErrTimedOut
	}

	t, err := b.tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !t.IsOpen() {
		return nil, ticket.ErrNotFound
	}
	return t, nil
}

// ticketInChannel returns the open ticket owning the interaction's channel.
func (b *Bot) ticketInChannel(ctx context.Context, event commonEvent) (*types.Ticket, error) {
	if _, err := guildOf(event); err != nil {
		return nil, err
	}

	t, err := b.tickets.FindOpenByChannel(ctx, event.ChannelID())
	if errors.Is(err, ticket.ErrNotFound) {
		return nil, errNotTicketChannel
	}
	return t, err
}

func (b *Bot) guildName(guildID snowflake.ID) string {
	if guild, ok := b.client.Caches().Guild(guildID); ok {
		return guild.Name
	}
	return guildID.String()
}
