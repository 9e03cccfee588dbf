// Package platformtest provides an in-memory Discord platform for tests.
package platformtest

import (
	"context"
	"errors"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/platform"
)

// ErrInjected is the error returned by failures configured on the fake.
var ErrInjected = errors.New("injected platform failure")

// SentMessage is a message the fake accepted.
type SentMessage struct {
	ChannelID snowflake.ID
	Message   discord.MessageCreate
}

// Channel is a channel created through the fake.
type Channel struct {
	ID       snowflake.ID
	GuildID  snowflake.ID
	Category bool
	Spec     platform.ChannelSpec
}

// Fake records every platform call. All methods are safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	nextID   snowflake.ID
	channels map[snowflake.ID]*Channel
	roles    map[snowflake.ID]bool
	history  map[snowflake.ID][]platform.HistoryMessage
	audit    map[snowflake.ID]platform.AuditEntry

	Sent    []SentMessage
	DMs     map[snowflake.ID][]discord.MessageCreate
	Deleted []snowflake.ID

	// Failure injection. SendFailures counts down on each failed send.
	SendFailures      int
	SendErr           error
	DMErr             error
	CreateChannelErr  error
	DeleteErr         error
	AuditErr          error
	HistoryCalls      int
	CreateChannelHook func()
}

// New creates an empty fake platform.
func New() *Fake {
	return &Fake{
		nextID:   100_000,
		channels: make(map[snowflake.ID]*Channel),
		roles:    make(map[snowflake.ID]bool),
		history:  make(map[snowflake.ID][]platform.HistoryMessage),
		audit:    make(map[snowflake.ID]platform.AuditEntry),
		DMs:      make(map[snowflake.ID][]discord.MessageCreate),
	}
}

func (f *Fake) newID() snowflake.ID {
	f.nextID++
	return f.nextID
}

// AddChannel registers an existing channel, e.g. a ticket category.
func (f *Fake) AddChannel(guildID snowflake.ID, category bool) snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.newID()
	f.channels[id] = &Channel{ID: id, GuildID: guildID, Category: category}
	return id
}

// RemoveChannel deletes a channel without recording it.
func (f *Fake) RemoveChannel(id snowflake.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.channels, id)
}

// AddRole registers an existing role.
func (f *Fake) AddRole(id snowflake.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.roles[id] = true
}

// SetHistory sets the messages FetchHistory returns for a channel.
func (f *Fake) SetHistory(channelID snowflake.ID, messages []platform.HistoryMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.history[channelID] = messages
}

// SetAuditEntry sets the audit entry FindAuditEntry returns for a target.
func (f *Fake) SetAuditEntry(targetID snowflake.ID, entry platform.AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.audit[targetID] = entry
}

// Channel returns a channel created or registered on the fake.
func (f *Fake) Channel(id snowflake.ID) (*Channel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.channels[id]
	return c, ok
}

// Channels returns the number of live channels.
func (f *Fake) Channels() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.channels)
}

// SentTo returns the messages sent to a channel in order.
func (f *Fake) SentTo(channelID snowflake.ID) []discord.MessageCreate {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []discord.MessageCreate
	for _, m := range f.Sent {
		if m.ChannelID == channelID {
			out = append(out, m.Message)
		}
	}
	return out
}

// DMsTo returns the direct messages sent to a user.
func (f *Fake) DMsTo(userID snowflake.ID) []discord.MessageCreate {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]discord.MessageCreate(nil), f.DMs[userID]...)
}

// DeletedChannels returns the channels deleted so far.
func (f *Fake) DeletedChannels() []snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]snowflake.ID(nil), f.Deleted...)
}

func (f *Fake) SendMessage(_ context.Context, channelID snowflake.ID, msg discord.MessageCreate) (snowflake.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SendFailures > 0 {
		f.SendFailures--
		return 0, ErrInjected
	}
	if f.SendErr != nil {
		return 0, f.SendErr
	}

	f.Sent = append(f.Sent, SentMessage{ChannelID: channelID, Message: msg})
	return f.newID(), nil
}

func (f *Fake) SendDM(_ context.Context, userID snowflake.ID, msg discord.MessageCreate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DMErr != nil {
		return f.DMErr
	}

	f.DMs[userID] = append(f.DMs[userID], msg)
	return nil
}

func (f *Fake) CreateCategory(_ context.Context, guildID snowflake.ID, spec platform.ChannelSpec) (snowflake.ID, error) {
	return f.createChannel(guildID, spec, true)
}

func (f *Fake) CreateTextChannel(_ context.Context, guildID snowflake.ID, spec platform.ChannelSpec) (snowflake.ID, error) {
	return f.createChannel(guildID, spec, false)
}

func (f *Fake) createChannel(guildID snowflake.ID, spec platform.ChannelSpec, category bool) (snowflake.ID, error) {
	f.mu.Lock()
	hook := f.CreateChannelHook
	if f.CreateChannelErr != nil {
		err := f.CreateChannelErr
		f.mu.Unlock()
		return 0, err
	}

	id := f.newID()
	f.channels[id] = &Channel{ID: id, GuildID: guildID, Category: category, Spec: spec}
	f.mu.Unlock()

	if hook != nil {
		hook()
	}

	return id, nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	delete(f.channels, channelID)
	f.Deleted = append(f.Deleted, channelID)
	return nil
}

func (f *Fake) ChannelExists(_ context.Context, channelID snowflake.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.channels[channelID]
	return ok, nil
}

func (f *Fake) RoleExists(_ context.Context, _ snowflake.ID, roleID snowflake.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.roles[roleID], nil
}

func (f *Fake) FetchHistory(_ context.Context, channelID snowflake.ID) ([]platform.HistoryMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.HistoryCalls++
	return append([]platform.HistoryMessage(nil), f.history[channelID]...), nil
}

func (f *Fake) FindAuditEntry(
	_ context.Context, _ snowflake.ID, targetID snowflake.ID, _ discord.AuditLogEvent,
) (platform.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.AuditErr != nil {
		return platform.AuditEntry{}, f.AuditErr
	}

	entry, ok := f.audit[targetID]
	if !ok {
		return platform.AuditEntry{}, platform.ErrUnavailable
	}
	return entry, nil
}
