package setup

import (
	"context"
	"fmt"
	"log"

	"github.com/robalyx/warden/internal/database"
	"github.com/robalyx/warden/internal/redis"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/robalyx/warden/internal/setup/telemetry"
	"github.com/robalyx/warden/internal/ticket"
	"go.uber.org/zap"
)

// App bundles the dependencies shared by the bot and the CLI tools.
type App struct {
	Config       *config.Config       // Application configuration
	Logger       *zap.Logger          // Main application logger
	DBLogger     *zap.Logger          // Database-specific logger
	DB           database.Client      // Database connection
	RedisManager *redis.Manager       // Redis connections, nil unless enabled
	Cooldowns    ticket.CooldownStore // Ticket creation cooldowns
	LogManager   *telemetry.Manager   // Log management system
	closers      []func()
}

// Options controls optional parts of InitializeApp.
type Options struct {
	// AutoMigrate applies pending migrations when opening the database.
	AutoMigrate bool
}

// InitializeApp loads configuration, then brings up logging, the database and
// the cooldown store in that order.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string, opts Options) (*App, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(ctx, &cfg.Common.SQLite, dbLogger, opts.AutoMigrate)
	if err != nil {
		logManager.Stop()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		DBLogger:   dbLogger.Named("database"),
		DB:         db,
		LogManager: logManager,
	}

	if err := app.initCooldowns(); err != nil {
		app.Cleanup(ctx)
		return nil, err
	}

	return app, nil
}

// initCooldowns selects the Redis cooldown store when Redis is enabled and the
// in-process store otherwise.
func (s *App) initCooldowns() error {
	if !s.Config.Common.Redis.Enabled {
		memory := ticket.NewMemoryCooldowns()
		s.Cooldowns = memory
		s.closers = append(s.closers, memory.Close)
		return nil
	}

	s.RedisManager = redis.NewManager(&s.Config.Common.Redis, s.Logger)

	client, err := s.RedisManager.GetClient(redis.CooldownDBIndex)
	if err != nil {
		return err
	}

	s.Cooldowns = ticket.NewRedisCooldowns(client)
	s.Logger.Info("Using Redis for ticket cooldowns",
		zap.String("host", s.Config.Common.Redis.Host),
		zap.Int("port", s.Config.Common.Redis.Port))

	return nil
}

// Cleanup shuts components down in reverse initialization order.
// Errors are logged so every component still gets a chance to close.
func (s *App) Cleanup(_ context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	s.LogManager.Stop()

	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need it during cleanup
	if s.RedisManager != nil {
		s.RedisManager.Close()
	}
}
