package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robalyx/warden/internal/export/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zsqlite "zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

var notes = sqlite.Table{
	Name: "notes",
	Columns: []sqlite.Column{
		{Name: "id", Type: "INTEGER PRIMARY KEY"},
		{Name: "body", Type: "TEXT NOT NULL"},
		{Name: "extra", Type: "TEXT"},
	},
}

func readNotes(t *testing.T, path string) map[int64]string {
	t.Helper()

	conn, err := zsqlite.OpenConn(path, zsqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	rows := make(map[int64]string)
	err = sqlitex.ExecuteTransient(conn, "SELECT id, body FROM notes ORDER BY id", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *zsqlite.Stmt) error {
			rows[stmt.ColumnInt64(0)] = stmt.ColumnText(1)
			return nil
		},
	})
	require.NoError(t, err)

	return rows
}

func TestWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archive.db")

	table := notes
	table.Rows = [][]any{
		{int64(1), "it's quoted", nil},
		{int64(2), `say "hi"`, "x"},
	}

	require.NoError(t, sqlite.Write(path, []sqlite.Table{table}))
	assert.Equal(t, map[int64]string{1: "it's quoted", 2: `say "hi"`}, readNotes(t, path))
}

func TestWriteBatches(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archive.db")

	table := notes
	for i := range 2500 {
		table.Rows = append(table.Rows, []any{int64(i), "row", nil})
	}

	require.NoError(t, sqlite.Write(path, []sqlite.Table{table}))
	assert.Len(t, readNotes(t, path), 2500)
}

func TestWriteReplacesExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archive.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o600))

	table := notes
	table.Rows = [][]any{{int64(1), "fresh", nil}}

	require.NoError(t, sqlite.Write(path, []sqlite.Table{table}))
	assert.Equal(t, map[int64]string{1: "fresh"}, readNotes(t, path))
}

func TestWriteRejectsDuplicateKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archive.db")

	table := notes
	table.Rows = [][]any{{int64(1), "a", nil}, {int64(1), "b", nil}}

	assert.Error(t, sqlite.Write(path, []sqlite.Table{table}))
}

func TestWriteRejectsShortRow(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archive.db")

	table := notes
	table.Rows = [][]any{{int64(1), "a"}}

	require.ErrorIs(t, sqlite.Write(path, []sqlite.Table{table}), sqlite.ErrRowWidth)
}
