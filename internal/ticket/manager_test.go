package ticket_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/audit"
	"github.com/robalyx/warden/internal/database"
	"github.com/robalyx/warden/internal/database/dbtest"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/platform"
	"github.com/robalyx/warden/internal/platform/platformtest"
	"github.com/robalyx/warden/internal/ticket"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	guildID     = snowflake.ID(10)
	authorID    = snowflake.ID(20)
	moderatorID = snowflake.ID(30)
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	manager  *ticket.Manager
	fake     *platformtest.Fake
	db       database.Client
	recorder *audit.Recorder
	clock    *clock

	mu     sync.Mutex
	sleeps []time.Duration
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		fake:  platformtest.New(),
		db:    dbtest.Open(t),
		clock: &clock{now: time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)},
	}

	h.recorder = audit.NewRecorder(h.db, h.fake, zap.NewNop()).
		WithRetryOptions(utils.RetryOptions{
			MaxElapsedTime:  time.Second,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			MaxRetries:      1,
		})

	cooldowns := ticket.NewMemoryCooldowns()
	t.Cleanup(cooldowns.Close)

	h.manager = ticket.NewManager(h.db, h.recorder, h.fake, cooldowns, zap.NewNop(), ticket.Options{
		GraceDelay: 5 * time.Second,
		Now:        h.clock.Now,
		Sleep: func(d time.Duration) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.sleeps = append(h.sleeps, d)
		},
	})

	return h
}

// configure registers a ticket category and applies update on top of it.
func (h *harness) configure(t *testing.T, update types.TicketConfigUpdate) snowflake.ID {
	t.Helper()

	categoryID := h.fake.AddChannel(guildID, true)
	update.CategoryID = &categoryID

	_, err := h.manager.UpdateConfig(t.Context(), guildID, update)
	require.NoError(t, err)

	return categoryID
}

func (h *harness) create(t *testing.T, userID snowflake.ID, ticketType string) (*ticket.CreateResult, error) {
	t.Helper()

	return h.manager.Create(t.Context(), ticket.CreateRequest{
		GuildID:    guildID,
		UserID:     userID,
		Username:   "Alice",
		TicketType: ticketType,
	})
}

func intPtr(v int) *int { return &v }

func TestCreateTicket(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := t.Context()
	categoryID := h.configure(t, types.TicketConfigUpdate{})

	result, err := h.create(t, authorID, "bug")
	require.NoError(t, err)

	assert.Equal(t, enum.TicketStatusOpen, result.Ticket.Status)
	assert.Equal(t, "bug", result.Ticket.TicketType)
	assert.Equal(t, result.ChannelID, result.Ticket.ChannelID)

	channel, ok := h.fake.Channel(result.ChannelID)
	require.True(t, ok)
	assert.Equal(t, "ticket-alice-1406", channel.Spec.Name)
	assert.Equal(t, "Ticket of Alice | Type: bug", channel.Spec.Topic)
	assert.Equal(t, categoryID, channel.Spec.ParentID)
	assert.Equal(t, platform.PrivateOverwrites(guildID, []snowflake.ID{authorID}, nil), channel.Spec.Overwrites)

	sent := h.fake.SentTo(result.ChannelID)
	require.Len(t, sent, 2)
	require.Len(t, sent[0].Embeds, 1)
	assert.Contains(t, sent[0].Embeds[0].Title, "Ticket #")
	assert.Len(t, sent[0].Components, 1)
	assert.Equal(t, "<@20>", sent[1].Content)

	records, err := h.recorder.QueryByUser(ctx, authorID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, enum.ActionTicketCreate, records[0].Action)
}

func TestCreateTicketWithSupportRoleAndLogChannel(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	role := snowflake.ID(77)
	h.fake.AddRole(role)
	logChannel := h.fake.AddChannel(guildID, false)
	h.configure(t, types.TicketConfigUpdate{SupportRoleID: &role, LogChannelID: &logChannel})

	result, err := h.create(t, authorID, "general")
	require.NoError(t, err)

	channel, ok := h.fake.Channel(result.ChannelID)
	require.True(t, ok)
	assert.Len(t, channel.Spec.Overwrites, 3)

	sent := h.fake.SentTo(result.ChannelID)
	require.Len(t, sent, 2)
	assert.Equal(t, "<@20> <@&77>", sent[1].Content)

	logged := h.fake.SentTo(logChannel)
	require.Len(t, logged, 1)
	assert.Equal(t, "🎫 New ticket", logged[0].Embeds[0].Title)
}

func TestCreateTicketIgnoresMissingSupportRole(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	role := snowflake.ID(78)
	h.configure(t, types.TicketConfigUpdate{SupportRoleID: &role})

	result, err := h.create(t, authorID, "general")
	require.NoError(t, err)

	channel, ok := h.fake.Channel(result.ChannelID)
	require.True(t, ok)
	assert.Len(t, channel.Spec.Overwrites, 2)
}

func TestCreateTicketCooldown(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.configure(t, types.TicketConfigUpdate{MaxTicketsPerUser: intPtr(10)})

	_, err := h.create(t, authorID, "general")
	require.NoError(t, err)

	_, err = h.create(t, authorID, "general")
	var limited *ticket.RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, 300, limited.Remaining)

	h.clock.Advance(299*time.Second + 500*time.Millisecond)
	_, err = h.create(t, authorID, "general")
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, 1, limited.Remaining, "remaining seconds round up")

	h.clock.Advance(500 * time.Millisecond)
	_, err = h.create(t, authorID, "general")
	require.NoError(t, err)

	// Other users are not affected
	_, err = h.create(t, authorID+1, "general")
	require.NoError(t, err)
}

func TestCreateTicketCap(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.configure(t, types.TicketConfigUpdate{MaxTicketsPerUser: intPtr(1), TicketCooldown: intPtr(0)})

	_, err := h.create(t, authorID, "general")
	require.NoError(t, err)

	_, err = h.create(t, authorID, "general")
	var capErr *ticket.CapExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 1, capErr.Open)
	assert.Equal(t, 1, capErr.Max)
}

func TestCreateTicketConcurrentCap(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.configure(t, types.TicketConfigUpdate{MaxTicketsPerUser: intPtr(3), TicketCooldown: intPtr(0)})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.create(t, authorID, "general")
			if err != nil {
				var capErr *ticket.CapExceededError
				assert.ErrorAs(t, err, &capErr)
				return
			}
			mu.Lock()
			successes++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, successes)

	open, err := h.db.Model().Ticket().CountOpenByAuthor(t.Context(), guildID, authorID)
	require.NoError(t, err)
	assert.Equal(t, 3, open)
}

func TestCreateTicketNotConfigured(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.create(t, authorID, "general")
	require.ErrorIs(t, err, ticket.ErrNotConfigured)

	categoryID := h.configure(t, types.TicketConfigUpdate{})
	h.fake.RemoveChannel(categoryID)

	_, err = h.create(t, authorID, "general")
	require.ErrorIs(t, err, ticket.ErrNotConfigured)
	assert.Equal(t, 0, h.fake.Channels(), "no channel is provisioned")
}

func TestCreateTicketUnknownType(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.configure(t, types.TicketConfigUpdate{})

	_, err := h.create(t, authorID, "billing")
	require.ErrorIs(t, err, ticket.ErrUnknownTicketType)
}

func TestCreateTicketChannelFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.configure(t, types.TicketConfigUpdate{})

	h.fake.CreateChannelErr = platformtest.ErrInjected
	_, err := h.create(t, authorID, "general")
	require.ErrorIs(t, err, platformtest.ErrInjected)

	open, err := h.db.Model().Ticket().CountOpenByAuthor(t.Context(), guildID, authorID)
	require.NoError(t, err)
	assert.Zero(t, open)

	// A failed attempt does not start the cooldown
	h.fake.CreateChannelErr = nil
	_, err = h.create(t, authorID, "general")
	require.NoError(t, err)
}

func TestAcceptTicket(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.configure(t, types.TicketConfigUpdate{})

	result, err := h.create(t, authorID, "general")
	require.NoError(t, err)
	id := result.Ticket.ID

	accepted, err := h.manager.Accept(t.Context(), id, moderatorID)
	require.NoError(t, err)
	assert.Equal(t, moderatorID, accepted.ModeratorID)

	_, err = h.manager.Accept(t.Context(), id, moderatorID)
	var already *ticket.AlreadyAcceptedError
	require.ErrorAs(t, err, &already)
	assert.True(t, already.SameModerator)

	_, err = h.manager.Accept(t.Context(), id, moderatorID+1)
	require.ErrorAs(t, err, &already)
	assert.False(t, already.SameModerator)
	assert.Equal(t, moderatorID, already.ModeratorID)

	stored, err := h.manager.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, moderatorID, stored.ModeratorID)

	_, err = h.manager.Accept(t.Context(), id+100, moderatorID)
	require.ErrorIs(t, err, ticket.ErrNotFound)
}

func TestAcceptTicketConcurrent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.configure(t, types.TicketConfigUpdate{})

	result, err := h.create(t, authorID, "general")
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []snowflake.ID
	)

	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mod := moderatorID + snowflake.ID(i)
			if _, err := h.manager.Accept(t.Context(), result.Ticket.ID, mod); err == nil {
				mu.Lock()
				winners = append(winners, mod)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)

	stored, err := h.manager.Get(t.Context(), result.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], stored.ModeratorID)
}

func TestCloseTicket(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := t.Context()
	h.configure(t, types.TicketConfigUpdate{})

	result, err := h.create(t, authorID, "general")
	require.NoError(t, err)

	base := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	h.fake.SetHistory(result.ChannelID, []platform.HistoryMessage{
		{AuthorName: "warden", AuthorBot: true, HasEmbeds: true, CreatedAt: base},
		{AuthorName: "alice", Discriminator: "0", Content: "my game crashes", CreatedAt: base.Add(time.Minute)},
		{AuthorName: "warden", AuthorBot: true, CreatedAt: base.Add(2 * time.Minute)},
		{AuthorName: "mod", Content: "try again", CreatedAt: base.Add(3 * time.Minute)},
		{AuthorName: "alice", Attachments: []string{"log.txt"}, CreatedAt: base.Add(4 * time.Minute)},
	})

	err = h.manager.Close(ctx, ticket.CloseRequest{
		TicketID:    result.Ticket.ID,
		ModeratorID: moderatorID,
		Reason:      "resolved",
		GuildName:   "Guild",
	})
	require.NoError(t, err)

	closed, err := h.manager.Get(ctx, result.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.TicketStatusClosed, closed.Status)
	assert.Equal(t, "resolved", closed.CloseReason)
	assert.False(t, closed.ClosedAt.IsZero())

	transcripts, err := h.db.Model().Transcript().GetByTicket(ctx, result.Ticket.ID)
	require.NoError(t, err)
	require.Len(t, transcripts, 1)

	lines := strings.Split(strings.TrimSuffix(transcripts[0].Content, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[2025-06-14 12:00:00] warden: [EMBED]", lines[0])
	assert.Equal(t, "[2025-06-14 12:01:00] alice: my game crashes", lines[1])
	assert.Equal(t, "[2025-06-14 12:04:00] alice: [ATTACHMENT] | Attachments: log.txt", lines[3])

	dms := h.fake.DMsTo(authorID)
	require.Len(t, dms, 1)
	require.Len(t, dms[0].Files, 1)
	assert.Equal(t, "ticket-1-transcript.txt", dms[0].Files[0].Name)

	assert.Equal(t, []snowflake.ID{result.ChannelID}, h.fake.DeletedChannels())
	assert.Equal(t, []time.Duration{5 * time.Second}, h.sleeps)

	records, err := h.recorder.QueryByUser(ctx, moderatorID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, enum.ActionTicketClose, records[0].Action)
	assert.Equal(t, "Ticket #1 | Reason: resolved", records[0].ExtraInfo)

	// Closing again has no side effects
	err = h.manager.Close(ctx, ticket.CloseRequest{TicketID: result.Ticket.ID, ModeratorID: moderatorID})
	require.ErrorIs(t, err, ticket.ErrNotFound)

	transcripts, err = h.db.Model().Transcript().GetByTicket(ctx, result.Ticket.ID)
	require.NoError(t, err)
	assert.Len(t, transcripts, 1)
	assert.Len(t, h.fake.DeletedChannels(), 1)
	assert.Len(t, h.sleeps, 1)
}

func TestCloseTicketDefaultsReasonAndSwallowsDMFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.configure(t, types.TicketConfigUpdate{})

	result, err := h.create(t, authorID, "general")
	require.NoError(t, err)

	h.fake.DMErr = errors.New("cannot send messages to this user")

	err = h.manager.Close(t.Context(), ticket.CloseRequest{TicketID: result.Ticket.ID, ModeratorID: moderatorID, Reason: "  "})
	require.NoError(t, err)

	closed, err := h.manager.Get(t.Context(), result.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Not specified", closed.CloseReason)
	assert.Len(t, h.fake.DeletedChannels(), 1)
}

func TestCloseFreesCapSlot(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.configure(t, types.TicketConfigUpdate{MaxTicketsPerUser: intPtr(1), TicketCooldown: intPtr(0)})

	result, err := h.create(t, authorID, "general")
	require.NoError(t, err)

	require.NoError(t, h.manager.Close(t.Context(), ticket.CloseRequest{TicketID: result.Ticket.ID, ModeratorID: moderatorID}))

	_, err = h.create(t, authorID, "general")
	require.NoError(t, err)
}

func TestTranscriptOnDemand(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := t.Context()
	h.configure(t, types.TicketConfigUpdate{})

	result, err := h.create(t, authorID, "general")
	require.NoError(t, err)

	h.fake.SetHistory(result.ChannelID, []platform.HistoryMessage{
		{AuthorName: "alice", Content: "one", CreatedAt: time.Unix(1, 0)},
		{AuthorName: "alice", Content: "two\nlines", CreatedAt: time.Unix(2, 0)},
		{AuthorName: "bob", Content: "three", CreatedAt: time.Unix(3, 0)},
	})

	first, err := h.manager.Transcript(ctx, result.Ticket.ID)
	require.NoError(t, err)
	second, err := h.manager.Transcript(ctx, result.Ticket.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(first, "\n"))
	assert.Equal(t, first, second)

	transcripts, err := h.db.Model().Transcript().GetByTicket(ctx, result.Ticket.ID)
	require.NoError(t, err)
	assert.Len(t, transcripts, 2, "every snapshot is stored")

	stored, err := h.manager.FindOpenByChannel(ctx, result.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, enum.TicketStatusOpen, stored.Status)
}

func TestSetup(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := t.Context()

	_, err := h.manager.UpdateConfig(ctx, guildID, types.TicketConfigUpdate{
		TicketTypes: []string{"general", "bug", "report", "support", "question", "other"},
	})
	require.NoError(t, err)

	config, err := h.manager.Setup(ctx, guildID)
	require.NoError(t, err)
	assert.NotZero(t, config.CategoryID)
	assert.NotZero(t, config.CreateChannelID)
	assert.NotZero(t, config.CreateMessageID)

	panel := h.fake.SentTo(config.CreateChannelID)
	require.Len(t, panel, 1)
	require.Len(t, panel[0].Components, 2, "six types need two rows")

	row, ok := panel[0].Components[0].(discord.ActionRowComponent)
	require.True(t, ok)
	button, ok := row.Components()[1].(discord.ButtonComponent)
	require.True(t, ok)
	assert.Equal(t, "create_ticket_bug", button.CustomID)
	assert.Equal(t, "Bug", button.Label)

	_, err = h.manager.Setup(ctx, guildID)
	require.ErrorIs(t, err, ticket.ErrAlreadyConfigured)
	assert.Equal(t, 2, h.fake.Channels())
}

func TestSetupPanelFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := t.Context()

	h.fake.SendFailures = 1

	_, err := h.manager.Setup(ctx, guildID)
	require.ErrorIs(t, err, platformtest.ErrInjected)

	config, err := h.manager.Config(ctx, guildID)
	require.NoError(t, err)
	assert.Zero(t, config.CategoryID)
	assert.Zero(t, config.CreateChannelID)
	assert.Zero(t, config.CreateMessageID)
	assert.Equal(t, 0, h.fake.Channels())
	assert.Len(t, h.fake.DeletedChannels(), 2)

	config, err = h.manager.Setup(ctx, guildID)
	require.NoError(t, err)
	assert.NotZero(t, config.CategoryID)
	assert.NotZero(t, config.CreateMessageID)
	assert.Len(t, h.fake.SentTo(config.CreateChannelID), 1)
}
