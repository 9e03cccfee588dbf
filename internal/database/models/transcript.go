package models

import (
	"context"
	"fmt"
	"time"

	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// TranscriptModel handles transcript snapshots. Every save appends a new row.
type TranscriptModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewTranscript creates a TranscriptModel with database access.
func NewTranscript(db *bun.DB, logger *zap.Logger) *TranscriptModel {
	return &TranscriptModel{
		db:     db,
		logger: logger.Named("db_transcript"),
	}
}

// Save appends a transcript snapshot for a ticket.
func (r *TranscriptModel) Save(ctx context.Context, ticketID int64, content string) (*types.Transcript, error) {
	transcript := &types.Transcript{
		TicketID:  ticketID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(transcript).
			Returning("id").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save transcript: %w (ticketID=%d)", err, ticketID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Saved transcript",
		zap.Int64("ticketID", ticketID),
		zap.Int("length", len(content)))

	return transcript, nil
}

// GetByTicket returns every snapshot of a ticket, oldest first.
func (r *TranscriptModel) GetByTicket(ctx context.Context, ticketID int64) ([]*types.Transcript, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Transcript, error) {
		var transcripts []*types.Transcript
		err := r.db.NewSelect().
			Model(&transcripts).
			Where("ticket_id = ?", ticketID).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get transcripts: %w (ticketID=%d)", err, ticketID)
		}

		return transcripts, nil
	})
}

// GetByTickets returns the snapshots of all given tickets, ordered by id.
func (r *TranscriptModel) GetByTickets(ctx context.Context, ticketIDs []int64) ([]*types.Transcript, error) {
	if len(ticketIDs) == 0 {
		return nil, nil
	}

	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Transcript, error) {
		var transcripts []*types.Transcript
		err := r.db.NewSelect().
			Model(&transcripts).
			Where("ticket_id IN (?)", bun.In(ticketIDs)).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get transcripts: %w", err)
		}

		return transcripts, nil
	})
}
