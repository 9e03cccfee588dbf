package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// TicketModel handles database operations for ticket records.
type TicketModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewTicket creates a TicketModel with database access.
func NewTicket(db *bun.DB, logger *zap.Logger) *TicketModel {
	return &TicketModel{
		db:     db,
		logger: logger.Named("db_ticket"),
	}
}

// Create inserts a new open ticket and fills in its id.
func (r *TicketModel) Create(ctx context.Context, ticket *types.Ticket) error {
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.CreatedAt = ticket.CreatedAt.UTC()
	ticket.Status = enum.TicketStatusOpen

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(ticket).
			Returning("id").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create ticket: %w (guildID=%d, authorID=%d)",
				err, ticket.GuildID, ticket.AuthorID)
		}

		return nil
	})
}

// GetByID returns a ticket by id or types.ErrTicketNotFound.
func (r *TicketModel) GetByID(ctx context.Context, id int64) (*types.Ticket, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Ticket, error) {
		ticket := &types.Ticket{ID: id}
		err := r.db.NewSelect().
			Model(ticket).
			WherePK().
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrTicketNotFound
			}
			return nil, fmt.Errorf("failed to get ticket: %w (ticketID=%d)", err, id)
		}

		return ticket, nil
	})
}

// GetOpenByChannel returns the open ticket living in channelID or
// types.ErrTicketNotFound.
func (r *TicketModel) GetOpenByChannel(ctx context.Context, channelID snowflake.ID) (*types.Ticket, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Ticket, error) {
		ticket := new(types.Ticket)
		err := r.db.NewSelect().
			Model(ticket).
			Where("channel_id = ?", channelID).
			Where("status = ?", enum.TicketStatusOpen).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrTicketNotFound
			}
			return nil, fmt.Errorf("failed to get ticket by channel: %w (channelID=%d)", err, channelID)
		}

		return ticket, nil
	})
}

// CountOpenByAuthor counts the open tickets a user has in a guild.
func (r *TicketModel) CountOpenByAuthor(ctx context.Context, guildID, authorID snowflake.ID) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := r.db.NewSelect().
			Model((*types.Ticket)(nil)).
			Where("guild_id = ?", guildID).
			Where("author_id = ?", authorID).
			Where("status = ?", enum.TicketStatusOpen).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count open tickets: %w (guildID=%d, authorID=%d)",
				err, guildID, authorID)
		}

		return count, nil
	})
}

// SetModerator assigns a moderator to an open, unaccepted ticket.
// It reports false when the ticket is closed, missing or already accepted.
func (r *TicketModel) SetModerator(ctx context.Context, id int64, moderatorID snowflake.ID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := r.db.NewUpdate().
			Model((*types.Ticket)(nil)).
			Set("moderator_id = ?", moderatorID).
			Where("id = ?", id).
			Where("status = ?", enum.TicketStatusOpen).
			Where("moderator_id IS NULL").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to set ticket moderator: %w (ticketID=%d)", err, id)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to read affected rows: %w", err)
		}

		return affected == 1, nil
	})
}

// MarkClosed moves an open ticket to the closed state.
// It reports false when the ticket was not open.
func (r *TicketModel) MarkClosed(ctx context.Context, id int64, reason string, closedAt time.Time) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := r.db.NewUpdate().
			Model((*types.Ticket)(nil)).
			Set("status = ?", enum.TicketStatusClosed).
			Set("closed_at = ?", closedAt.UTC()).
			Set("close_reason = ?", reason).
			Where("id = ?", id).
			Where("status = ?", enum.TicketStatusOpen).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to close ticket: %w (ticketID=%d)", err, id)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to read affected rows: %w", err)
		}

		return affected == 1, nil
	})
}

// GetClosed returns all closed tickets in id order.
func (r *TicketModel) GetClosed(ctx context.Context) ([]*types.Ticket, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Ticket, error) {
		var tickets []*types.Ticket
		err := r.db.NewSelect().
			Model(&tickets).
			Where("status = ?", enum.TicketStatusClosed).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get closed tickets: %w", err)
		}

		return tickets, nil
	})
}
