package database

import (
	"github.com/robalyx/warden/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	log          *models.LogModel
	logSetting   *models.LogSettingModel
	ticket       *models.TicketModel
	ticketConfig *models.TicketConfigModel
	transcript   *models.TranscriptModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		log:          models.NewLog(db, logger),
		logSetting:   models.NewLogSetting(db, logger),
		ticket:       models.NewTicket(db, logger),
		ticketConfig: models.NewTicketConfig(db, logger),
		transcript:   models.NewTranscript(db, logger),
	}
}

// Log returns the log record model repository.
func (r *Repository) Log() *models.LogModel {
	return r.log
}

// LogSetting returns the log channel settings model repository.
func (r *Repository) LogSetting() *models.LogSettingModel {
	return r.logSetting
}

// Ticket returns the ticket model repository.
func (r *Repository) Ticket() *models.TicketModel {
	return r.ticket
}

// TicketConfig returns the ticket configuration model repository.
func (r *Repository) TicketConfig() *models.TicketConfigModel {
	return r.ticketConfig
}

// Transcript returns the transcript model repository.
func (r *Repository) Transcript() *models.TranscriptModel {
	return r.transcript
}
