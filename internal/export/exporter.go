// Package export archives closed tickets, their transcripts and the audit log
// into a standalone SQLite file.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/export/sqlite"
	"go.uber.org/zap"
)

// EngineVersion changes whenever the archive layout does.
const EngineVersion = "1.0.0"

// Manifest describes one archive. It is written next to the database file.
type Manifest struct {
	ID            string    `json:"id"`
	EngineVersion string    `json:"engineVersion"`
	CreatedAt     time.Time `json:"createdAt"`
	Database      string    `json:"database"`
	Tickets       int       `json:"tickets"`
	Transcripts   int       `json:"transcripts"`
	Logs          int       `json:"logs"`
}

// Exporter writes archives into a directory.
type Exporter struct {
	db     database.Client
	outDir string
	logger *zap.Logger
	now    func() time.Time
}

// New creates an exporter writing into outDir.
func New(db database.Client, outDir string, logger *zap.Logger) *Exporter {
	return &Exporter{
		db:     db,
		outDir: outDir,
		logger: logger.Named("export"),
		now:    time.Now,
	}
}

// Export writes archive-<id>.db and archive-<id>.json and returns the manifest.
func (e *Exporter) Export(ctx context.Context) (*Manifest, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	tickets, err := e.db.Model().Ticket().GetClosed(ctx)
	if err != nil {
		return nil, err
	}

	ticketIDs := make([]int64, len(tickets))
	for i, t := range tickets {
		ticketIDs[i] = t.ID
	}

	transcripts, err := e.db.Model().Transcript().GetByTickets(ctx, ticketIDs)
	if err != nil {
		return nil, err
	}

	logs, err := e.db.Model().Log().QueryAll(ctx)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	manifest := &Manifest{
		ID:            id,
		EngineVersion: EngineVersion,
		CreatedAt:     e.now().UTC(),
		Database:      "archive-" + id + ".db",
		Tickets:       len(tickets),
		Transcripts:   len(transcripts),
		Logs:          len(logs),
	}

	tables := []sqlite.Table{ticketTable(tickets), transcriptTable(transcripts), logTable(logs)}
	if err := sqlite.Write(filepath.Join(e.outDir, manifest.Database), tables); err != nil {
		return nil, err
	}

	data, err := sonic.ConfigStd.MarshalIndent(manifest, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(e.outDir, "archive-"+id+".json"), data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	e.logger.Info("Archive written",
		zap.String("id", id),
		zap.Int("tickets", manifest.Tickets),
		zap.Int("transcripts", manifest.Transcripts),
		zap.Int("logs", manifest.Logs))

	return manifest, nil
}

func ticketTable(tickets []*types.Ticket) sqlite.Table {
	table := sqlite.Table{
		Name: "tickets",
		Columns: []sqlite.Column{
			{Name: "id", Type: "INTEGER PRIMARY KEY"},
			{Name: "guild_id", Type: "TEXT NOT NULL"},
			{Name: "author_id", Type: "TEXT NOT NULL"},
			{Name: "moderator_id", Type: "TEXT"},
			{Name: "channel_id", Type: "TEXT NOT NULL"},
			{Name: "ticket_type", Type: "TEXT NOT NULL"},
			{Name: "status", Type: "TEXT NOT NULL"},
			{Name: "created_at", Type: "TEXT NOT NULL"},
			{Name: "closed_at", Type: "TEXT"},
			{Name: "close_reason", Type: "TEXT"},
		},
	}

	for _, t := range tickets {
		table.Rows = append(table.Rows, []any{
			t.ID, idText(t.GuildID), idText(t.AuthorID), optionalID(t.ModeratorID), idText(t.ChannelID),
			t.TicketType, t.Status.String(), timeText(t.CreatedAt), optionalTime(t.ClosedAt),
			optionalText(t.CloseReason),
		})
	}

	return table
}

func transcriptTable(transcripts []*types.Transcript) sqlite.Table {
	table := sqlite.Table{
		Name: "transcripts",
		Columns: []sqlite.Column{
			{Name: "id", Type: "INTEGER PRIMARY KEY"},
			{Name: "ticket_id", Type: "INTEGER NOT NULL"},
			{Name: "content", Type: "TEXT NOT NULL"},
			{Name: "created_at", Type: "TEXT NOT NULL"},
		},
	}

	for _, t := range transcripts {
		table.Rows = append(table.Rows, []any{t.ID, t.TicketID, t.Content, timeText(t.CreatedAt)})
	}

	return table
}

func logTable(records []*types.LogRecord) sqlite.Table {
	table := sqlite.Table{
		Name: "logs",
		Columns: []sqlite.Column{
			{Name: "id", Type: "INTEGER PRIMARY KEY"},
			{Name: "guild_id", Type: "TEXT NOT NULL"},
			{Name: "user_id", Type: "TEXT"},
			{Name: "action", Type: "TEXT NOT NULL"},
			{Name: "timestamp", Type: "TEXT NOT NULL"},
			{Name: "user_actioned_id", Type: "TEXT"},
			{Name: "reason", Type: "TEXT"},
			{Name: "duration", Type: "TEXT"},
			{Name: "deleted_message", Type: "TEXT"},
			{Name: "channel_id", Type: "TEXT"},
			{Name: "moderator_id", Type: "TEXT"},
			{Name: "extra_info", Type: "TEXT"},
		},
	}

	for _, r := range records {
		table.Rows = append(table.Rows, []any{
			r.ID, idText(r.GuildID), optionalID(r.UserID), r.Action.String(), timeText(r.Timestamp),
			optionalID(r.UserActionedID), optionalText(r.Reason), optionalText(r.Duration),
			optionalText(r.DeletedMessage), optionalID(r.ChannelID), optionalID(r.ModeratorID),
			optionalText(r.ExtraInfo),
		})
	}

	return table
}

// Snowflakes are stored as text since they may exceed SQLite's signed integers.
func idText(id snowflake.ID) string {
	return id.String()
}

func optionalID(id snowflake.ID) any {
	if id == 0 {
		return nil
	}
	return id.String()
}

func timeText(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func optionalTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return timeText(t)
}

func optionalText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
