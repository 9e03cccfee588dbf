package notify_test

import (
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogHistory(t *testing.T) {
	t.Parallel()

	at := time.Unix(1_700_000_000, 0)
	records := []*types.LogRecord{
		{ID: 7, Action: enum.ActionWarn, Reason: "spam", Timestamp: at},
		{ID: 3, Action: enum.ActionTicketCreate, ExtraInfo: "Ticket #1 | Type: bug", Timestamp: at},
		{ID: 1, Action: enum.ActionMemberJoin, Timestamp: at},
	}

	n := notify.LogHistory(snowflake.ID(5), records)
	lines := strings.Split(strings.TrimSuffix(n.Description, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "`#7` <t:1700000000:R> ⚠️ Warning: Reason: spam", lines[0])
	assert.Equal(t, "`#3` <t:1700000000:R> 🎫 Ticket created: Ticket #1 | Type: bug", lines[1])
	assert.Equal(t, "`#1` <t:1700000000:R> 📥 Member joined", lines[2])
	assert.Equal(t, "User ID: 5", n.Footer)
}

func TestLogHistoryEmpty(t *testing.T) {
	t.Parallel()

	n := notify.LogHistory(snowflake.ID(5), nil)
	assert.Equal(t, "No records for <@5>.", n.Description)
}

func TestLogHistoryFitsDescription(t *testing.T) {
	t.Parallel()

	records := make([]*types.LogRecord, 10)
	for i := range records {
		records[i] = &types.LogRecord{ID: int64(i), Action: enum.ActionWarn, Reason: strings.Repeat("x", 1000)}
	}

	n := notify.LogHistory(snowflake.ID(5), records)
	assert.LessOrEqual(t, len(n.Description), 4096)
	assert.NotEmpty(t, n.Description)
}

func TestTicketConfigSummary(t *testing.T) {
	t.Parallel()

	cfg := types.NewTicketConfig(snowflake.ID(1))
	cfg.SupportRoleID = 9

	n := notify.TicketConfigSummary(cfg)

	role, ok := n.Field("Support role")
	require.True(t, ok)
	assert.Equal(t, "<@&9>", role)

	logChannel, ok := n.Field("Log channel")
	require.True(t, ok)
	assert.Equal(t, "None", logChannel)

	kinds, ok := n.Field("Types")
	require.True(t, ok)
	assert.Equal(t, "general, report, bug, support, other", kinds)
}
