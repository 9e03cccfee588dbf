package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRecordsText(t *testing.T) {
	t.Parallel()

	records := []*types.LogRecord{{
		ID:          4,
		GuildID:     1,
		Action:      enum.ActionWarn,
		Timestamp:   time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		ModeratorID: 9,
		Reason:      "spam",
	}}

	var buf bytes.Buffer
	require.NoError(t, writeRecordsText(&buf, records))
	assert.Equal(t, "#4 2024-05-06 07:08:09 guild=1 ⚠️ Warning moderator=9 reason=spam\n", buf.String())

	buf.Reset()
	require.NoError(t, writeRecordsText(&buf, nil))
	assert.Equal(t, "No records found\n", buf.String())
}

func TestWriteRecordsJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeRecordsJSON(&buf, nil))
	assert.JSONEq(t, "[]", buf.String())

	buf.Reset()
	records := []*types.LogRecord{{ID: 2, GuildID: 1, UserID: 3, Action: enum.ActionMemberJoin}}
	require.NoError(t, writeRecordsJSON(&buf, records))

	var decoded []*types.LogRecord
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, records[0].UserID, decoded[0].UserID)
	assert.Equal(t, enum.ActionMemberJoin, decoded[0].Action)
}
