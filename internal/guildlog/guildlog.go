// Package guildlog records guild activity (messages, members, bans, voice and
// channels) through the audit recorder.
package guildlog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/audit"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/platform"
	"github.com/robalyx/warden/pkg/utils"
	"go.uber.org/zap"
)

const (
	maxMessageText = 100
	unknownReason  = "Not specified"
)

// AuditLookup finds who performed an action from the guild's audit log.
type AuditLookup interface {
	FindAuditEntry(
		ctx context.Context, guildID, targetID snowflake.ID, event discord.AuditLogEvent,
	) (platform.AuditEntry, error)
}

// Service turns guild events into log records and notifications.
type Service struct {
	recorder *audit.Recorder
	audit    AuditLookup
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a Service.
func NewService(recorder *audit.Recorder, lookup AuditLookup, logger *zap.Logger) *Service {
	return &Service{
		recorder: recorder,
		audit:    lookup,
		logger:   logger.Named("guildlog"),
		now:      time.Now,
	}
}

// MessageDeleted records a deleted message. Messages from bots are ignored.
func (s *Service) MessageDeleted(ctx context.Context, e MessageDelete) error {
	if e.AuthorBot || e.GuildID == 0 {
		return nil
	}

	text := utils.Truncate(e.Content, maxMessageText)
	at := s.now()

	return s.recorder.Record(ctx, &types.LogRecord{
		GuildID:        e.GuildID,
		UserID:         e.AuthorID,
		Action:         enum.ActionMessageDelete,
		DeletedMessage: text,
		ChannelID:      e.ChannelID,
		Timestamp:      at,
	}, notify.MessageDeleted(e.AuthorID, e.ChannelID, text, at))
}

// MessageEdited records a changed message. Bot messages and edits that leave
// the text unchanged (embeds resolving, pins) are ignored.
func (s *Service) MessageEdited(ctx context.Context, e MessageEdit) error {
	if e.AuthorBot || e.GuildID == 0 || e.Before == e.After {
		return nil
	}

	before := utils.Truncate(e.Before, maxMessageText)
	after := utils.Truncate(e.After, maxMessageText)
	at := s.now()

	return s.recorder.Record(ctx, &types.LogRecord{
		GuildID:   e.GuildID,
		UserID:    e.AuthorID,
		Action:    enum.ActionMessageEdit,
		ChannelID: e.ChannelID,
		ExtraInfo: fmt.Sprintf("Before: %s | After: %s", before, after),
		Timestamp: at,
	}, notify.MessageEdited(e.AuthorID, e.ChannelID, before, after, at))
}

// MemberJoined records a member joining.
func (s *Service) MemberJoined(ctx context.Context, e Member) error {
	at := s.now()
	return s.recorder.Record(ctx, &types.LogRecord{
		GuildID:   e.GuildID,
		UserID:    e.UserID,
		Action:    enum.ActionMemberJoin,
		Timestamp: at,
	}, notify.MemberJoined(e.UserID, e.AvatarURL, e.UserID.Time(), at))
}

// MemberLeft records a member leaving or being removed.
func (s *Service) MemberLeft(ctx context.Context, e Member) error {
	at := s.now()
	return s.recorder.Record(ctx, &types.LogRecord{
		GuildID:   e.GuildID,
		UserID:    e.UserID,
		Action:    enum.ActionMemberLeave,
		Timestamp: at,
	}, notify.MemberLeft(e.UserID, e.AvatarURL, at))
}

// MemberUpdated records role and nickname changes. One update can produce
// both records.
func (s *Service) MemberUpdated(ctx context.Context, e MemberUpdate) error {
	var errs []error

	added, removed := diffRoles(e.OldRoles, e.NewRoles)
	if len(added) > 0 || len(removed) > 0 {
		at := s.now()
		info := fmt.Sprintf("Added: %s | Removed: %s", e.roleNames(added), e.roleNames(removed))

		errs = append(errs, s.recorder.Record(ctx, &types.LogRecord{
			GuildID:   e.GuildID,
			UserID:    e.UserID,
			Action:    enum.ActionMemberRolesUpdate,
			ExtraInfo: info,
			Timestamp: at,
		}, notify.RolesUpdated(e.UserID, added, removed, at)))
	}

	if e.OldNick != e.NewNick {
		at := s.now()
		before := cmpOr(e.OldNick, e.Username)
		after := cmpOr(e.NewNick, e.Username)

		errs = append(errs, s.recorder.Record(ctx, &types.LogRecord{
			GuildID:   e.GuildID,
			UserID:    e.UserID,
			Action:    enum.ActionMemberNickUpdate,
			ExtraInfo: fmt.Sprintf("Before: %s | After: %s", before, after),
			Timestamp: at,
		}, notify.NicknameChanged(e.UserID, before, after, at)))
	}

	return errors.Join(errs...)
}

// MemberBanned records a ban with the moderator and reason from the audit log.
func (s *Service) MemberBanned(ctx context.Context, e Ban) error {
	entry := s.lookup(ctx, e.GuildID, e.UserID, discord.AuditLogEventMemberBanAdd)
	reason := cmpOr(entry.Reason, unknownReason)
	at := s.now()

	return s.recorder.Record(ctx, &types.LogRecord{
		GuildID:     e.GuildID,
		UserID:      e.UserID,
		Action:      enum.ActionMemberBan,
		ModeratorID: entry.ModeratorID,
		Reason:      reason,
		Timestamp:   at,
	}, notify.MemberBanned(e.UserID, e.Username, e.AvatarURL, entry.ModeratorID, reason, at))
}

// MemberUnbanned records a lifted ban with the moderator from the audit log.
func (s *Service) MemberUnbanned(ctx context.Context, e Ban) error {
	entry := s.lookup(ctx, e.GuildID, e.UserID, discord.AuditLogEventMemberBanRemove)
	at := s.now()

	return s.recorder.Record(ctx, &types.LogRecord{
		GuildID:     e.GuildID,
		UserID:      e.UserID,
		Action:      enum.ActionMemberUnban,
		ModeratorID: entry.ModeratorID,
		Timestamp:   at,
	}, notify.MemberUnbanned(e.UserID, e.Username, entry.ModeratorID, at))
}

// lookup returns the audit entry for a target. A missing entry or permission
// yields a zero entry; other failures are logged and also yield a zero entry.
func (s *Service) lookup(
	ctx context.Context, guildID, targetID snowflake.ID, event discord.AuditLogEvent,
) platform.AuditEntry {
	if s.audit == nil {
		return platform.AuditEntry{}
	}

	entry, err := s.audit.FindAuditEntry(ctx, guildID, targetID, event)
	if err != nil {
		if !errors.Is(err, platform.ErrUnavailable) {
			s.logger.Error("Failed to read audit log",
				zap.Uint64("guildID", uint64(guildID)),
				zap.Uint64("targetID", uint64(targetID)),
				zap.Int("event", int(event)),
				zap.Error(err))
		}
		return platform.AuditEntry{}
	}

	return entry
}

// VoiceStateChanged records joining, leaving or switching voice channels.
// Mute and deafen updates leave the channel unchanged and are ignored.
func (s *Service) VoiceStateChanged(ctx context.Context, e VoiceChange) error {
	at := s.now()
	record := &types.LogRecord{
		GuildID:   e.GuildID,
		UserID:    e.UserID,
		Timestamp: at,
	}

	var n *notify.Notification
	switch {
	case e.Before == e.After:
		return nil
	case e.Before == 0:
		record.Action = enum.ActionVoiceJoin
		record.ChannelID = e.After
		n = notify.VoiceJoined(e.UserID, e.After, at)
	case e.After == 0:
		record.Action = enum.ActionVoiceLeave
		record.ChannelID = e.Before
		n = notify.VoiceLeft(e.UserID, e.Before, at)
	default:
		record.Action = enum.ActionVoiceMove
		record.ExtraInfo = fmt.Sprintf("From: %s | To: %s", e.BeforeName, e.AfterName)
		n = notify.VoiceMoved(e.UserID, e.Before, e.After, at)
	}

	return s.recorder.Record(ctx, record, n)
}

// ChannelCreated records a new guild channel.
func (s *Service) ChannelCreated(ctx context.Context, e ChannelChange) error {
	at := s.now()
	return s.recorder.Record(ctx, &types.LogRecord{
		GuildID:   e.GuildID,
		Action:    enum.ActionChannelCreate,
		ChannelID: e.ChannelID,
		ExtraInfo: e.info(),
		Timestamp: at,
	}, notify.ChannelCreated(e.ChannelID, e.Kind, at))
}

// ChannelDeleted records a removed guild channel.
func (s *Service) ChannelDeleted(ctx context.Context, e ChannelChange) error {
	at := s.now()
	return s.recorder.Record(ctx, &types.LogRecord{
		GuildID:   e.GuildID,
		Action:    enum.ActionChannelDelete,
		ChannelID: e.ChannelID,
		ExtraInfo: e.info(),
		Timestamp: at,
	}, notify.ChannelDeleted(e.Name, e.Kind, at))
}

// diffRoles returns the roles present only in next and only in prev.
func diffRoles(prev, next []snowflake.ID) (added, removed []snowflake.ID) {
	for _, id := range next {
		if !slices.Contains(prev, id) {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if !slices.Contains(next, id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func (e MemberUpdate) roleNames(ids []snowflake.ID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		if name, ok := e.RoleNames[id]; ok {
			names[i] = name
		} else {
			names[i] = id.String()
		}
	}
	return strings.Join(names, ", ")
}

func cmpOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
