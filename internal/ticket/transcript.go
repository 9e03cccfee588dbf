package ticket

import (
	"regexp"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/platform"
)

const transcriptTimeLayout = "2006-01-02 15:04:05"

var (
	userMentionPattern = regexp.MustCompile(`<@!?(\d+)>`)
	roleMentionPattern = regexp.MustCompile(`<@&(\d+)>`)

	lineBreaks = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`)
)

// FormatTranscript renders channel history as one line per message, in the
// order given. Bot messages with neither content nor embeds are skipped.
func FormatTranscript(messages []platform.HistoryMessage) string {
	var b strings.Builder

	for _, msg := range messages {
		if msg.AuthorBot && msg.Content == "" && !msg.HasEmbeds {
			continue
		}

		b.WriteString("[")
		b.WriteString(msg.CreatedAt.UTC().Format(transcriptTimeLayout))
		b.WriteString("] ")
		b.WriteString(displayName(msg.AuthorName, msg.Discriminator))
		b.WriteString(": ")
		b.WriteString(transcriptContent(msg))

		if len(msg.Attachments) > 0 {
			b.WriteString(" | Attachments: ")
			b.WriteString(strings.Join(msg.Attachments, ", "))
		}

		b.WriteString("\n")
	}

	return b.String()
}

// displayName omits the legacy discriminator for migrated usernames.
func displayName(name, discriminator string) string {
	if discriminator == "" || discriminator == "0" {
		return name
	}
	return name + "#" + discriminator
}

// transcriptContent keeps each message on a single line by escaping newlines.
func transcriptContent(msg platform.HistoryMessage) string {
	content := lineBreaks.Replace(cleanMentions(msg))
	if content != "" {
		return content
	}

	switch {
	case msg.HasEmbeds:
		return "[EMBED]"
	case len(msg.Attachments) > 0:
		return "[ATTACHMENT]"
	default:
		return ""
	}
}

// cleanMentions replaces raw mention markup with readable names.
func cleanMentions(msg platform.HistoryMessage) string {
	content := msg.Content
	if !strings.ContainsRune(content, '<') {
		return content
	}

	content = roleMentionPattern.ReplaceAllStringFunc(content, func(m string) string {
		return "@" + lookupName(msg.Roles, roleMentionPattern, m, "deleted-role")
	})
	content = userMentionPattern.ReplaceAllStringFunc(content, func(m string) string {
		return "@" + lookupName(msg.Users, userMentionPattern, m, "unknown-user")
	})
	content = platform.ChannelMentionPattern.ReplaceAllStringFunc(content, func(m string) string {
		return "#" + lookupName(msg.Channels, platform.ChannelMentionPattern, m, "deleted-channel")
	})

	return content
}

func lookupName(names map[snowflake.ID]string, pattern *regexp.Regexp, match, fallback string) string {
	sub := pattern.FindStringSubmatch(match)
	if len(sub) < 2 {
		return fallback
	}

	id, err := snowflake.Parse(sub[1])
	if err != nil {
		return fallback
	}

	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return fallback
}
