package bot

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/audit"
	"github.com/robalyx/warden/internal/platform"
	"github.com/robalyx/warden/internal/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterLookup(t *testing.T) {
	t.Parallel()

	r := newRouter[string]()
	r.handle("ticket_close", "close")
	r.handlePrefix("ticket_create:", "create")
	r.handle("ticket_create:exact", "exact")

	tests := []struct {
		name    string
		id      string
		want    string
		payload string
		found   bool
	}{
		{name: "exact match", id: "ticket_close", want: "close", found: true},
		{name: "prefix with payload", id: "ticket_create:bug", want: "create", payload: "bug", found: true},
		{name: "exact wins over prefix", id: "ticket_create:exact", want: "exact", found: true},
		{name: "prefix without payload", id: "ticket_create:", found: false},
		{name: "unknown id", id: "other", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler, payload, ok := r.lookup(tt.id)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, handler)
			assert.Equal(t, tt.payload, payload)
		})
	}
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		want     string
		expected bool
	}{
		{
			name:     "rate limited",
			err:      &ticket.RateLimitedError{Remaining: 42},
			want:     "Please wait 42 seconds before creating another ticket.",
			expected: true,
		},
		{
			name:     "cap exceeded",
			err:      fmt.Errorf("create: %w", &ticket.CapExceededError{Open: 2, Max: 2}),
			want:     "You already have 2 open tickets. The limit is 2.",
			expected: true,
		},
		{
			name:     "accepted by another moderator",
			err:      &ticket.AlreadyAcceptedError{ModeratorID: 9},
			want:     "This ticket was already accepted by <@9>.",
			expected: true,
		},
		{
			name:     "accepted by the same moderator",
			err:      &ticket.AlreadyAcceptedError{ModeratorID: 9, SameModerator: true},
			want:     "You have already accepted this ticket.",
			expected: true,
		},
		{
			name:     "logging configured",
			err:      audit.ErrAlreadyConfigured,
			want:     "Logging is already set up in this server.",
			expected: true,
		},
		{
			name:     "not a ticket channel",
			err:      errNotTicketChannel,
			want:     "This ticket does not exist or is already closed.",
			expected: true,
		},
		{
			name:     "invalid option",
			err:      invalidOption("Bad value %d.", 3),
			want:     "Bad value 3.",
			expected: true,
		},
		{
			name: "missing bot permission",
			err:  fmt.Errorf("%w: forbidden", platform.ErrUnavailable),
			want: "I am missing the permissions to do that.",
		},
		{
			name: "unexpected",
			err:  errors.New("boom"),
			want: genericFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, expected := userMessage(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.expected, expected)
		})
	}
}

func TestToHistoryMessage(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := discord.Message{
		Author:       discord.User{Username: "alice", Discriminator: "0"},
		Content:      "hi <@2> <@&3> <#4> <#5>",
		CreatedAt:    created,
		Mentions:     []discord.User{{ID: 2, Username: "bob"}},
		MentionRoles: []snowflake.ID{3},
		Attachments:  []discord.Attachment{{Filename: "log.txt"}},
		Embeds:       []discord.Embed{{Title: "x"}},
	}

	roleName := func(id snowflake.ID) (string, bool) { return "mods", id == 3 }
	channelName := func(id snowflake.ID) (string, bool) { return "general", id == 4 }

	got := toHistoryMessage(msg, roleName, channelName)

	assert.Equal(t, "alice", got.AuthorName)
	assert.Equal(t, created, got.CreatedAt)
	assert.True(t, got.HasEmbeds)
	assert.Equal(t, []string{"log.txt"}, got.Attachments)
	assert.Equal(t, map[snowflake.ID]string{2: "bob"}, got.Users)
	assert.Equal(t, map[snowflake.ID]string{3: "mods"}, got.Roles)
	assert.Equal(t, map[snowflake.ID]string{4: "general"}, got.Channels)
}

func TestMapRestError(t *testing.T) {
	t.Parallel()

	restError := func(status int) error {
		return &rest.Error{Response: &http.Response{StatusCode: status}}
	}

	require.NoError(t, mapRestError(nil))
	assert.ErrorIs(t, mapRestError(restError(http.StatusForbidden)), platform.ErrUnavailable)
	assert.ErrorIs(t, mapRestError(restError(http.StatusNotFound)), platform.ErrUnavailable)
	assert.NotErrorIs(t, mapRestError(restError(http.StatusInternalServerError)), platform.ErrUnavailable)

	assert.True(t, isNotFound(restError(http.StatusNotFound)))
	assert.False(t, isNotFound(restError(http.StatusForbidden)))
	assert.False(t, isNotFound(errors.New("network")))
}

func TestParseTypeList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"bug", "feature_request"}, parseTypeList("Bug, feature request, BUG"))
}

func TestChannelKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text", channelKind(discord.ChannelTypeGuildText))
	assert.Equal(t, "voice", channelKind(discord.ChannelTypeGuildVoice))
	assert.Equal(t, "category", channelKind(discord.ChannelTypeGuildCategory))
	assert.Equal(t, "unknown", channelKind(discord.ChannelTypeDM))
}

func TestIsAdmin(t *testing.T) {
	t.Parallel()

	assert.False(t, isAdmin(nil))
	assert.False(t, isAdmin(&discord.ResolvedMember{Permissions: discord.PermissionSendMessages}))
	assert.True(t, isAdmin(&discord.ResolvedMember{
		Permissions: discord.PermissionAdministrator | discord.PermissionSendMessages,
	}))
}

func TestDerefHelpers(t *testing.T) {
	t.Parallel()

	nick := "neo"
	id := snowflake.ID(7)
	assert.Equal(t, "neo", derefString(&nick))
	assert.Empty(t, derefString(nil))
	assert.Equal(t, snowflake.ID(7), derefID(&id))
	assert.Equal(t, snowflake.ID(0), derefID(nil))
}
