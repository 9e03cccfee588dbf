package ticket

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/warden/pkg/utils"
)

// CooldownKeyPrefix prefixes cooldown keys in Redis.
const CooldownKeyPrefix = "warden:cooldown:"

// CooldownKey identifies one user's cooldown within a guild.
type CooldownKey struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

func (k CooldownKey) String() string {
	return fmt.Sprintf("%d:%d", k.GuildID, k.UserID)
}

// CooldownStore remembers when each user last created a ticket.
type CooldownStore interface {
	// Last returns the last creation instant, if one is still remembered.
	Last(ctx context.Context, key CooldownKey) (time.Time, bool, error)
	// Mark records a creation at the given instant, remembered for ttl.
	Mark(ctx context.Context, key CooldownKey, at time.Time, ttl time.Duration) error
}

// MemoryCooldowns keeps cooldowns in process memory. A restart clears them.
type MemoryCooldowns struct {
	entries *utils.TTLMap[CooldownKey, time.Time]
}

// NewMemoryCooldowns creates an in-memory cooldown store.
func NewMemoryCooldowns() *MemoryCooldowns {
	return &MemoryCooldowns{
		entries: utils.NewTTLMap[CooldownKey, time.Time](time.Minute),
	}
}

// Last implements CooldownStore.
func (m *MemoryCooldowns) Last(_ context.Context, key CooldownKey) (time.Time, bool, error) {
	at, ok := m.entries.Get(key)
	return at, ok, nil
}

// Mark implements CooldownStore.
func (m *MemoryCooldowns) Mark(_ context.Context, key CooldownKey, at time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.entries.SetWithTTL(key, at, ttl)
	return nil
}

// Close stops the background sweeper.
func (m *MemoryCooldowns) Close() {
	m.entries.Close()
}

// RedisCooldowns keeps cooldowns in Redis so they survive restarts.
type RedisCooldowns struct {
	client rueidis.Client
}

// NewRedisCooldowns creates a cooldown store backed by client.
func NewRedisCooldowns(client rueidis.Client) *RedisCooldowns {
	return &RedisCooldowns{client: client}
}

// Last implements CooldownStore.
func (r *RedisCooldowns) Last(ctx context.Context, key CooldownKey) (time.Time, bool, error) {
	value, err := r.client.Do(ctx, r.client.B().Get().Key(CooldownKeyPrefix+key.String()).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to read cooldown %s: %w", key, err)
	}

	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid cooldown value %q for %s: %w", value, key, err)
	}

	return time.UnixMilli(millis), true, nil
}

// Mark implements CooldownStore.
func (r *RedisCooldowns) Mark(ctx context.Context, key CooldownKey, at time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	err := r.client.Do(ctx, r.client.B().Set().
		Key(CooldownKeyPrefix+key.String()).
		Value(strconv.FormatInt(at.UnixMilli(), 10)).
		Px(ttl).
		Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to store cooldown %s: %w", key, err)
	}

	return nil
}
