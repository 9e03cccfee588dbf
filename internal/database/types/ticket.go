package types

import (
	"errors"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// ErrTicketNotFound is returned when no ticket matches a lookup.
var ErrTicketNotFound = errors.New("ticket not found")

const (
	DefaultMaxTicketsPerUser = 3
	DefaultTicketCooldown    = 300
	DefaultAutoCloseHours    = 24
	DefaultWelcomeMessage    = "Thanks for reaching out! A moderator will be with you shortly."
	DefaultTicketTypes       = "general,report,bug,support,other"
	FallbackTicketType       = "general"
)

// TicketConfig holds the per-guild ticket settings.
// RequireTopic and AutoCloseHours are stored and displayed but nothing enforces them.
type TicketConfig struct {
	bun.BaseModel `bun:"table:ticket_config"`

	GuildID           snowflake.ID `bun:",pk"`
	CategoryID        snowflake.ID `bun:",nullzero"`
	CreateChannelID   snowflake.ID `bun:",nullzero"`
	CreateMessageID   snowflake.ID `bun:",nullzero"`
	LogChannelID      snowflake.ID `bun:",nullzero"`
	SupportRoleID     snowflake.ID `bun:",nullzero"`
	MaxTicketsPerUser int          `bun:",notnull,default:3"`
	TicketCooldown    int          `bun:"ticket_cooldown,notnull,default:300"`
	RequireTopic      bool         `bun:",notnull,default:false"`
	AutoCloseHours    int          `bun:",notnull,default:24"`
	WelcomeMessage    string       `bun:",notnull"`
	TicketTypes       string       `bun:",notnull"`
}

// NewTicketConfig returns the configuration a guild starts with.
func NewTicketConfig(guildID snowflake.ID) *TicketConfig {
	return &TicketConfig{
		GuildID:           guildID,
		MaxTicketsPerUser: DefaultMaxTicketsPerUser,
		TicketCooldown:    DefaultTicketCooldown,
		AutoCloseHours:    DefaultAutoCloseHours,
		WelcomeMessage:    DefaultWelcomeMessage,
		TicketTypes:       DefaultTicketTypes,
	}
}

// Types returns the enabled ticket types in their configured order.
func (c *TicketConfig) Types() []string {
	return ParseTicketTypes(c.TicketTypes)
}

// HasType reports whether ticketType is enabled for the guild.
func (c *TicketConfig) HasType(ticketType string) bool {
	for _, t := range c.Types() {
		if t == ticketType {
			return true
		}
	}
	return false
}

// Cooldown returns the minimum time between two ticket creations by one user.
func (c *TicketConfig) Cooldown() time.Duration {
	return time.Duration(c.TicketCooldown) * time.Second
}

// TicketConfigUpdate is a partial update. Nil fields are left unchanged.
type TicketConfigUpdate struct {
	CategoryID        *snowflake.ID
	CreateChannelID   *snowflake.ID
	CreateMessageID   *snowflake.ID
	LogChannelID      *snowflake.ID
	SupportRoleID     *snowflake.ID
	MaxTicketsPerUser *int
	TicketCooldown    *int
	RequireTopic      *bool
	AutoCloseHours    *int
	WelcomeMessage    *string
	TicketTypes       []string
}

// IsEmpty reports whether the update changes nothing.
func (u *TicketConfigUpdate) IsEmpty() bool {
	return u.CategoryID == nil && u.CreateChannelID == nil && u.CreateMessageID == nil &&
		u.LogChannelID == nil && u.SupportRoleID == nil && u.MaxTicketsPerUser == nil &&
		u.TicketCooldown == nil && u.RequireTopic == nil && u.AutoCloseHours == nil &&
		u.WelcomeMessage == nil && u.TicketTypes == nil
}

// ParseTicketTypes splits a comma-delimited type list, trimming each entry
// and dropping blanks. An empty result falls back to the general type.
func ParseTicketTypes(raw string) []string {
	var types []string
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		types = append(types, part)
	}

	if len(types) == 0 {
		return []string{FallbackTicketType}
	}

	return types
}

// FormatTicketTypes joins types into the stored representation.
func FormatTicketTypes(types []string) string {
	return strings.Join(ParseTicketTypes(strings.Join(types, ",")), ",")
}

// Ticket is a support conversation and its lifecycle record.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID          int64             `bun:",pk,autoincrement" json:"id"`
	AuthorID    snowflake.ID      `bun:",notnull" json:"authorId"`
	CreatedAt   time.Time         `bun:",notnull" json:"createdAt"`
	Status      enum.TicketStatus `bun:",notnull,default:'open'" json:"status"`
	ChannelID   snowflake.ID      `bun:",notnull" json:"channelId"`
	ModeratorID snowflake.ID      `bun:",nullzero" json:"moderatorId,omitempty"`
	GuildID     snowflake.ID      `bun:",notnull" json:"guildId"`
	TicketType  string            `bun:",notnull,default:'general'" json:"ticketType"`
	ClosedAt    time.Time         `bun:",nullzero" json:"closedAt,omitzero"`
	CloseReason string            `bun:",nullzero" json:"closeReason,omitempty"`
}

// IsOpen reports whether the ticket is still open.
func (t *Ticket) IsOpen() bool {
	return t.Status == enum.TicketStatusOpen
}

// IsAccepted reports whether a moderator has taken the ticket.
func (t *Ticket) IsAccepted() bool {
	return t.ModeratorID != 0
}

// Transcript is one snapshot of a ticket channel's history.
type Transcript struct {
	bun.BaseModel `bun:"table:transcripts"`

	ID        int64     `bun:",pk,autoincrement" json:"id"`
	TicketID  int64     `bun:",notnull" json:"ticketId"`
	Content   string    `bun:",notnull" json:"content"`
	CreatedAt time.Time `bun:",notnull" json:"createdAt"`
}

// TicketMessage is reserved for per-message capture. Nothing writes it yet.
type TicketMessage struct {
	bun.BaseModel `bun:"table:ticket_messages"`

	ID          int64        `bun:",pk,autoincrement"`
	TicketID    int64        `bun:",notnull"`
	AuthorID    snowflake.ID `bun:",notnull"`
	Message     string       `bun:",nullzero"`
	CreatedAt   time.Time    `bun:",notnull"`
	Attachments string       `bun:",nullzero"`
}

// TicketTopic is a per-guild topic definition. No operation uses it yet.
type TicketTopic struct {
	bun.BaseModel `bun:"table:ticket_topics"`

	ID          int64        `bun:",pk,autoincrement"`
	GuildID     snowflake.ID `bun:",notnull"`
	Name        string       `bun:",notnull"`
	Description string       `bun:",nullzero"`
	Emoji       string       `bun:",notnull,default:'🎫'"`
}
