package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robalyx/warden/internal/database/migrations"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// Client defines the methods that a database client must implement.
type Client interface {
	// Model returns the repository containing all model operations.
	Model() *Repository
	// Migrator returns a migrator bound to the registered migrations.
	Migrator() *migrate.Migrator
	// Close gracefully shuts down the database connection.
	Close() error
	// DB returns the underlying bun.DB instance.
	DB() *bun.DB
}

// clientImpl represents the concrete implementation of the database client.
type clientImpl struct {
	db     *bun.DB
	logger *zap.Logger
	repo   *Repository
}

// NewConnection opens the SQLite database file and returns a Client instance.
func NewConnection(
	ctx context.Context, cfg *config.SQLite, logger *zap.Logger, autoMigrate bool,
) (Client, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return Open(ctx, FileDSN(cfg.Path, cfg.BusyTimeout), cfg.MaxOpenConns, logger, autoMigrate)
}

// Open connects to the database described by dsn.
func Open(
	ctx context.Context, dsn string, maxOpenConns int, logger *zap.Logger, autoMigrate bool,
) (Client, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if maxOpenConns > 0 {
		sqldb.SetMaxOpenConns(maxOpenConns)
	}

	// Create Bun db instance
	db := bun.NewDB(sqldb, sqlitedialect.New())

	// Add query hook for monitoring
	db.AddQueryHook(NewHook(logger))

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client := &clientImpl{
		db:     db,
		logger: logger,
		repo:   NewRepository(db, logger),
	}

	// Run migrations if requested
	if autoMigrate {
		if err := client.migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logger.Info("Database connection established")

	return client, nil
}

// FileDSN builds the connection string for a database file.
// sqliteshim may resolve to either the cgo or the pure Go driver, so the
// pragmas are given in both spellings.
func FileDSN(path string, busyTimeout int) string {
	return "file:" + path + "?" + pragmas(busyTimeout, true)
}

// MemoryDSN builds the connection string for a named shared in-memory database.
func MemoryDSN(name string) string {
	return "file:" + name + "?mode=memory&cache=shared&" + pragmas(5000, false)
}

func pragmas(busyTimeout int, wal bool) string {
	timeout := strconv.Itoa(busyTimeout)

	values := url.Values{}
	values.Add("_pragma", "foreign_keys(1)")
	values.Add("_pragma", "busy_timeout("+timeout+")")
	values.Set("_foreign_keys", "1")
	values.Set("_busy_timeout", timeout)

	if wal {
		values.Add("_pragma", "journal_mode(WAL)")
		values.Set("_journal_mode", "WAL")
	}

	return values.Encode()
}

// migrate initializes the migration tables and applies pending migrations.
func (c *clientImpl) migrate(ctx context.Context) error {
	migrator := c.Migrator()
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if !group.IsZero() {
		c.logger.Info("Automatically ran migrations", zap.String("group", group.String()))
	}

	return nil
}

// Close gracefully shuts down the database connection.
func (c *clientImpl) Close() error {
	err := c.db.Close()
	if err != nil {
		c.logger.Error("Failed to close database connection", zap.Error(err))
		return err
	}

	c.logger.Info("Database connection closed")

	return nil
}

// Model returns the repository containing all model operations.
func (c *clientImpl) Model() *Repository {
	return c.repo
}

// Migrator returns a migrator bound to the registered migrations.
func (c *clientImpl) Migrator() *migrate.Migrator {
	return migrate.NewMigrator(c.db, migrations.Migrations)
}

// DB returns the underlying bun.DB instance.
func (c *clientImpl) DB() *bun.DB {
	return c.db
}

// isExpected reports errors that callers handle as normal control flow.
func isExpected(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || strings.Contains(err.Error(), "no rows in result set")
}
