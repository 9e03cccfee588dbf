package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robalyx/warden/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "common.toml", `
version = 1

[sqlite]
path = "/tmp/test.db"
`)
	writeFile(t, dir, "bot.toml", `
version = 1

[discord]
token = "abc"

[tickets]
grace_delay_ms = 10
`)

	cfg, used, err := config.LoadConfigFrom([]string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)

	assert.Equal(t, dir, used)
	assert.Equal(t, "/tmp/test.db", cfg.Common.SQLite.Path)
	assert.Equal(t, "abc", cfg.Bot.Discord.Token)
	assert.Equal(t, 10, cfg.Bot.Tickets.GraceDelayMS)

	// Keys absent from the files keep their defaults
	assert.Equal(t, 300, cfg.Bot.Tickets.CloseTimeoutS)
	assert.Equal(t, 5000, cfg.Common.SQLite.BusyTimeout)
	assert.Equal(t, "info", cfg.Common.Debug.LogLevel)
}

func TestLoadConfigFromErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		common  string
		bot     string
		wantErr error
	}{
		{
			name:    "missing bot file",
			common:  "version = 1",
			wantErr: config.ErrConfigFileNotFound,
		},
		{
			name:    "missing version",
			common:  "[debug]\nlog_level = \"debug\"",
			bot:     "version = 1",
			wantErr: config.ErrConfigVersionMissing,
		},
		{
			name:    "version mismatch",
			common:  "version = 1",
			bot:     "version = 7",
			wantErr: config.ErrConfigVersionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tt.common != "" {
				writeFile(t, dir, "common.toml", tt.common)
			}
			if tt.bot != "" {
				writeFile(t, dir, "bot.toml", tt.bot)
			}

			_, _, err := config.LoadConfigFrom([]string{dir})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
