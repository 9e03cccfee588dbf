package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.3.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	Bot    BotConfig    `koanf:"bot"`
}

// CommonConfig contains configuration shared between the bot and the CLI tools.
type CommonConfig struct {
	// Version of the common config.
	Version int    `koanf:"version"`
	Debug   Debug  `koanf:"debug"`
	SQLite  SQLite `koanf:"sqlite"`
	Redis   Redis  `koanf:"redis"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int `koanf:"version"`
	// Discord configuration.
	Discord Discord `koanf:"discord"`
	// Ticket workflow timings.
	Tickets Tickets `koanf:"tickets"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// SQLite contains the database file configuration.
type SQLite struct {
	// Path to the database file.
	Path string `koanf:"path"`
	// Busy timeout in milliseconds.
	BusyTimeout int `koanf:"busy_timeout"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Use Redis for ticket cooldowns instead of process memory.
	Enabled bool `koanf:"enabled"`
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Discord contains the bot credentials.
type Discord struct {
	// Bot token.
	Token string `koanf:"token"`
}

// Tickets contains timings for the ticket workflow.
type Tickets struct {
	// Delay before a closed ticket channel is deleted, in milliseconds.
	GraceDelayMS int `koanf:"grace_delay_ms"`
	// How long a close confirmation stays valid, in seconds.
	CloseTimeoutS int `koanf:"close_timeout_s"`
	// Maximum interaction handlers running at once.
	HandlerConcurrency int `koanf:"handler_concurrency"`
}

// DefaultConfig returns the configuration used for any key the config files leave out.
func DefaultConfig() Config {
	return Config{
		Common: CommonConfig{
			Debug: Debug{
				LogLevel:      "info",
				MaxLogsToKeep: 10,
				MaxLogLines:   100000,
			},
			SQLite: SQLite{
				Path:         "dbs/warden.db",
				BusyTimeout:  5000,
				MaxOpenConns: 4,
			},
			Redis: Redis{
				Host: "localhost",
				Port: 6379,
			},
		},
		Bot: BotConfig{
			Tickets: Tickets{
				GraceDelayMS:       5000,
				CloseTimeoutS:      300,
				HandlerConcurrency: 16,
			},
		},
	}
}

// LoadConfig loads the configuration from the config search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadConfigFrom([]string{
		".warden",
		homeDir + "/.warden/config",
		"/etc/warden/config",
		"/app/config",
		"config",
		".",
	})
}

// LoadConfigFrom loads common.toml and bot.toml from the first path containing each.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string

	configFiles := []string{"common", "bot"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if _, err := os.Stat(configPath); err != nil {
				continue
			}

			// Namespace each file under its own name
			sub := koanf.New(".")
			if err := sub.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, "", fmt.Errorf("failed to parse %s: %w", configPath, err)
			}

			if err := k.MergeAt(sub, configName); err != nil {
				return nil, "", fmt.Errorf("failed to merge %s: %w", configPath, err)
			}

			configLoaded = true
			if usedConfigPath == "" {
				usedConfigPath = path
			}

			break
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	config := DefaultConfig()
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/warden/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
