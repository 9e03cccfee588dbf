package ticket_test

import (
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/platform"
	"github.com/robalyx/warden/internal/ticket"
	"github.com/stretchr/testify/assert"
)

func TestFormatTranscript(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		msg  platform.HistoryMessage
		want string
	}{
		{
			name: "legacy discriminator",
			msg:  platform.HistoryMessage{AuthorName: "bob", Discriminator: "1234", Content: "hi", CreatedAt: at},
			want: "[2025-01-02 03:04:05] bob#1234: hi\n",
		},
		{
			name: "zero discriminator",
			msg:  platform.HistoryMessage{AuthorName: "bob", Discriminator: "0", Content: "hi", CreatedAt: at},
			want: "[2025-01-02 03:04:05] bob: hi\n",
		},
		{
			name: "attachments with content",
			msg: platform.HistoryMessage{
				AuthorName: "bob", Content: "see", Attachments: []string{"a.txt", "b.png"}, CreatedAt: at,
			},
			want: "[2025-01-02 03:04:05] bob: see | Attachments: a.txt, b.png\n",
		},
		{
			name: "embed only",
			msg:  platform.HistoryMessage{AuthorName: "bob", HasEmbeds: true, CreatedAt: at},
			want: "[2025-01-02 03:04:05] bob: [EMBED]\n",
		},
		{
			name: "empty bot message",
			msg:  platform.HistoryMessage{AuthorName: "warden", AuthorBot: true, CreatedAt: at},
			want: "",
		},
		{
			name: "mentions",
			msg: platform.HistoryMessage{
				AuthorName: "bob",
				Content:    "<@1> <@!2> <@&3> <#4> <@&5>",
				Users:      map[snowflake.ID]string{1: "alice", 2: "carol"},
				Roles:      map[snowflake.ID]string{3: "Support"},
				Channels:   map[snowflake.ID]string{4: "general"},
				CreatedAt:  at,
			},
			want: "[2025-01-02 03:04:05] bob: @alice @carol @Support #general @deleted-role\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ticket.FormatTranscript([]platform.HistoryMessage{tt.msg}))
		})
	}
}

func TestFormatTranscriptLineCount(t *testing.T) {
	t.Parallel()

	messages := make([]platform.HistoryMessage, 0, 50)
	for i := range 50 {
		messages = append(messages, platform.HistoryMessage{
			AuthorName: "user",
			Content:    strings.Repeat("line\n", i%3),
			CreatedAt:  time.Unix(int64(i), 0),
		})
	}

	out := ticket.FormatTranscript(messages)
	assert.Equal(t, 50, strings.Count(out, "\n"))
}
