package utils

import (
	"regexp"
	"strings"
)

// MultipleSpaces matches any sequence of whitespace (including newlines).
var MultipleSpaces = regexp.MustCompile(`\s+`)

// CompressAllWhitespace replaces all whitespace sequences (including newlines) with a single space.
func CompressAllWhitespace(s string) string {
	return strings.TrimSpace(MultipleSpaces.ReplaceAllString(s, " "))
}

// Truncate shortens s to at most limit runes, appending "..." when it cut anything.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// channelNameInvalid matches runs of characters Discord drops from text channel names.
var channelNameInvalid = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// ChannelName turns arbitrary text into a lowercase text channel name.
func ChannelName(parts ...string) string {
	joined := strings.ToLower(CompressAllWhitespace(strings.Join(parts, "-")))
	name := strings.Trim(channelNameInvalid.ReplaceAllString(joined, "-"), "-")
	if len([]rune(name)) > 100 {
		name = string([]rune(name)[:100])
	}
	return name
}
