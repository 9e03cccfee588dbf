package export_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/robalyx/warden/internal/database/dbtest"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func TestExport(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	db := dbtest.Open(t)
	repo := db.Model()

	closed := &types.Ticket{GuildID: 1, AuthorID: 2, ChannelID: 3, TicketType: "bug"}
	require.NoError(t, repo.Ticket().Create(ctx, closed))
	ok, err := repo.Ticket().MarkClosed(ctx, closed.ID, "resolved", time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	open := &types.Ticket{GuildID: 1, AuthorID: 4, ChannelID: 5, TicketType: "general"}
	require.NoError(t, repo.Ticket().Create(ctx, open))

	_, err = repo.Transcript().Save(ctx, closed.ID, "[2024-01-01 00:00:00] alice: hi")
	require.NoError(t, err)
	_, err = repo.Transcript().Save(ctx, open.ID, "[2024-01-01 00:00:00] bob: hi")
	require.NoError(t, err)

	_, err = repo.Log().Append(ctx, &types.LogRecord{GuildID: 1, UserID: 2, Action: enum.ActionMemberJoin})
	require.NoError(t, err)

	outDir := filepath.Join(t.TempDir(), "out")
	manifest, err := export.New(db, outDir, zap.NewNop()).Export(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, manifest.Tickets)
	assert.Equal(t, 1, manifest.Transcripts)
	assert.Equal(t, 1, manifest.Logs)
	assert.Equal(t, "archive-"+manifest.ID+".db", manifest.Database)

	conn, err := sqlite.OpenConn(filepath.Join(outDir, manifest.Database), sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	var reason, status string
	err = sqlitex.ExecuteTransient(conn, "SELECT close_reason, status FROM tickets", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			reason = stmt.ColumnText(0)
			status = stmt.ColumnText(1)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "resolved", reason)
	assert.Equal(t, "closed", status)

	data, err := os.ReadFile(filepath.Join(outDir, "archive-"+manifest.ID+".json"))
	require.NoError(t, err)

	var stored export.Manifest
	require.NoError(t, sonic.Unmarshal(data, &stored))
	assert.Equal(t, manifest.ID, stored.ID)
	assert.Equal(t, export.EngineVersion, stored.EngineVersion)
}
