// Package notify turns log records and ticket events into Discord embeds.
// Everything here is a pure mapping with no I/O.
package notify

import (
	"time"

	"github.com/disgoorg/disgo/discord"
)

// Embed colors.
const (
	ColorRed     = 0xED4245
	ColorGreen   = 0x57F287
	ColorOrange  = 0xE67E22
	ColorBlue    = 0x3498DB
	ColorDarkRed = 0x992D22
	ColorPurple  = 0x9B59B6
	ColorBlurple = 0x5865F2
)

// Field is a single name/value pair shown in an embed.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Notification is a platform-independent description of an embed.
type Notification struct {
	Title       string
	Description string
	Fields      []Field
	Color       int
	Footer      string
	Thumbnail   string
	Timestamp   time.Time
}

// AddField appends a field and returns the notification for chaining.
func (n *Notification) AddField(name, value string, inline bool) *Notification {
	n.Fields = append(n.Fields, Field{Name: name, Value: value, Inline: inline})
	return n
}

// Field returns the value of the first field with the given name.
func (n *Notification) Field(name string) (string, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Embed converts the notification into a Discord embed.
func (n *Notification) Embed() discord.Embed {
	embed := discord.NewEmbedBuilder().
		SetTitle(n.Title).
		SetDescription(n.Description).
		SetColor(n.Color)

	for _, f := range n.Fields {
		embed.AddField(f.Name, f.Value, f.Inline)
	}

	if n.Footer != "" {
		embed.SetFooterText(n.Footer)
	}
	if n.Thumbnail != "" {
		embed.SetThumbnail(n.Thumbnail)
	}
	if !n.Timestamp.IsZero() {
		embed.SetTimestamp(n.Timestamp)
	}

	return embed.Build()
}
