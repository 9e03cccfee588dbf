package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/notify"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// LogCommands returns the audit log inspection commands.
func LogCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "logs",
			Usage: "Print every log record about a user",
			Description: `Print the log records whose subject is the given user, oldest first.

Examples:
  db logs --user 123456789012345678          # Human readable lines
  db logs --user 123456789012345678 --json   # JSON array for scripts`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user",
					Aliases:  []string{"u"},
					Usage:    "Discord user ID",
					Required: true,
				},
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Print records as JSON",
				},
			},
			Action: handleLogs(deps),
		},
	}
}

// handleLogs handles the 'logs' command.
func handleLogs(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		userID, err := snowflake.Parse(c.String("user"))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidUser, err)
		}

		records, err := deps.DB.Model().Log().QueryByUser(ctx, userID)
		if err != nil {
			return err
		}

		deps.Logger.Debug("Loaded log records",
			zap.Uint64("userID", uint64(userID)),
			zap.Int("count", len(records)))

		if c.Bool("json") {
			return writeRecordsJSON(os.Stdout, records)
		}
		return writeRecordsText(os.Stdout, records)
	}
}

func writeRecordsJSON(w io.Writer, records []*types.LogRecord) error {
	if records == nil {
		records = []*types.LogRecord{}
	}

	data, err := sonic.ConfigStd.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeRecordsText(w io.Writer, records []*types.LogRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found")
		return err
	}

	for _, r := range records {
		line := fmt.Sprintf("#%d %s guild=%d %s",
			r.ID, r.Timestamp.UTC().Format("2006-01-02 15:04:05"), r.GuildID, notify.Heading(r.Action))
		if r.ModeratorID != 0 {
			line += fmt.Sprintf(" moderator=%d", r.ModeratorID)
		}
		if r.Reason != "" {
			line += " reason=" + r.Reason
		}
		if r.ExtraInfo != "" {
			line += " | " + r.ExtraInfo
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}
