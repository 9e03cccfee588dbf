package commands

import (
	"errors"

	"github.com/robalyx/warden/internal/database"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var (
	ErrNameRequired = errors.New("NAME argument required")
	ErrInvalidUser  = errors.New("--user must be a Discord user ID")
	// ErrConfirmRequired guards rollback, which can drop ticket data.
	ErrConfirmRequired = errors.New("rollback drops data, pass --yes to confirm")
	ErrMigrationLocked = errors.New("another process holds the migration lock")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB       database.Client
	Migrator *migrate.Migrator
	Logger   *zap.Logger
}
