package platform

import (
	"regexp"

	"github.com/disgoorg/snowflake/v2"
)

// ChannelMentionPattern matches a channel mention and captures its ID.
var ChannelMentionPattern = regexp.MustCompile(`<#(\d+)>`)

// MentionedChannels returns the channel IDs mentioned in content, in order.
func MentionedChannels(content string) []snowflake.ID {
	var ids []snowflake.ID
	for _, match := range ChannelMentionPattern.FindAllStringSubmatch(content, -1) {
		if id, err := snowflake.Parse(match[1]); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
