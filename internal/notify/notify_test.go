package notify_test

import (
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action enum.Action
		icon   string
		title  string
	}{
		{enum.ActionKick, "👢", "Kick"},
		{enum.ActionMute, "🔇", "Mute issued"},
		{enum.ActionTicketCreate, "🎫", "Ticket created"},
		{enum.ActionTempVoiceTransfer, "👑", "Ownership transferred"},
		{enum.ActionMemberBan, "🔨", "Member banned"},
		{enum.Action("timeout_extend"), notify.GenericIcon, "timeout_extend"},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			t.Parallel()
			icon, title := notify.Describe(tt.action)
			assert.Equal(t, tt.icon, icon)
			assert.Equal(t, tt.title, title)
		})
	}
}

func TestColorFamilies(t *testing.T) {
	t.Parallel()

	assert.Equal(t, notify.ColorOrange, notify.Color(enum.ActionWarn))
	assert.Equal(t, notify.ColorBlue, notify.Color(enum.ActionTicketClose))
	assert.Equal(t, notify.ColorPurple, notify.Color(enum.ActionTempVoiceLock))
	assert.Equal(t, notify.ColorGreen, notify.Color(enum.ActionMemberJoin))
	assert.Equal(t, notify.ColorGreen, notify.Color(enum.ActionMemberUnban))
	assert.Equal(t, notify.ColorGreen, notify.Color(enum.ActionVoiceJoin))
	assert.Equal(t, notify.ColorRed, notify.Color(enum.ActionMessageDelete))
	assert.Equal(t, notify.ColorRed, notify.Color(enum.ActionMemberLeave))
	assert.Equal(t, notify.ColorDarkRed, notify.Color(enum.ActionMemberBan))
}

func TestModerationAction(t *testing.T) {
	t.Parallel()

	at := time.Unix(1_700_000_000, 0).UTC()
	n := notify.ModerationAction(enum.ActionKick, 10, 20, "spam", "", at)

	assert.Equal(t, "👢 Kick", n.Title)
	assert.Equal(t, notify.ColorOrange, n.Color)

	moderator, ok := n.Field("Moderator")
	require.True(t, ok)
	assert.Equal(t, "<@10>", moderator)

	reason, ok := n.Field("Reason")
	require.True(t, ok)
	assert.Equal(t, "spam", reason)

	_, ok = n.Field("Duration")
	assert.False(t, ok, "empty duration is omitted")

	embed := n.Embed()
	assert.Equal(t, "👢 Kick", embed.Title)
	assert.Len(t, embed.Fields, 3)
	require.NotNil(t, embed.Timestamp)
	assert.True(t, at.Equal(*embed.Timestamp))
}

func TestUnknownActionNotification(t *testing.T) {
	t.Parallel()

	n := notify.ModerationAction(enum.Action("softban"), 1, 2, "", "", time.Now())
	assert.Equal(t, "📝 softban", n.Title)
}

func TestMessageDeletedWithoutText(t *testing.T) {
	t.Parallel()

	n := notify.MessageDeleted(1, 2, "", time.Now())
	assert.Contains(t, n.Description, "*No text*")
	assert.Equal(t, "User ID: 1", n.Footer)
}

func TestRolesUpdated(t *testing.T) {
	t.Parallel()

	n := notify.RolesUpdated(5, []snowflake.ID{7, 8}, nil, time.Now())

	added, ok := n.Field("Added")
	require.True(t, ok)
	assert.Equal(t, "<@&7>, <@&8>", added)

	_, ok = n.Field("Removed")
	assert.False(t, ok)
}

func TestMemberBannedUnknownModerator(t *testing.T) {
	t.Parallel()

	n := notify.MemberBanned(5, "someone", "", 0, "", time.Now())

	_, ok := n.Field("Moderator")
	assert.False(t, ok)

	reason, ok := n.Field("Reason")
	require.True(t, ok)
	assert.Equal(t, "Not specified", reason)
}

func TestFieldValuesAreClipped(t *testing.T) {
	t.Parallel()

	n := notify.TicketAction(enum.ActionTicketClose, 1, 9, strings.Repeat("x", 2000), time.Now())

	details, ok := n.Field("Details")
	require.True(t, ok)
	assert.Len(t, []rune(details), 1024)
	assert.Contains(t, n.Description, "#9")
}

func TestTicketWelcome(t *testing.T) {
	t.Parallel()

	created := time.Unix(1_700_000_000, 0)
	n := notify.TicketWelcome(42, 7, "https://cdn/avatar.png", "bug", "Hello", created)

	assert.Equal(t, "🎫 Ticket #42", n.Title)
	assert.Equal(t, "**Hello**", n.Description)
	assert.Equal(t, notify.ColorBlurple, n.Color)

	kind, ok := n.Field("📁 Type")
	require.True(t, ok)
	assert.Equal(t, "Bug", kind)

	when, ok := n.Field("🕒 Created")
	require.True(t, ok)
	assert.Equal(t, "<t:1700000000:R>", when)

	embed := n.Embed()
	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "https://cdn/avatar.png", embed.Thumbnail.URL)
}

func TestTicketHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<@1> <@&2>", notify.TicketPing(1, 2))
	assert.Equal(t, "<@1>", notify.TicketPing(1, 0))
	assert.Equal(t, "🐛", notify.TypeEmoji("bug"))
	assert.Equal(t, "🎫", notify.TypeEmoji("billing"))
	assert.Equal(t, "ticket-5-transcript.txt", notify.TranscriptFileName(5))
}
