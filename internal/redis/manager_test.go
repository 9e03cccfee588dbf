package redis_test

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/robalyx/warden/internal/redis"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManagerReusesClients(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	manager := redis.NewManager(&config.Redis{Host: mr.Host(), Port: port}, zap.NewNop())
	t.Cleanup(manager.Close)

	first, err := manager.GetClient(redis.CooldownDBIndex)
	require.NoError(t, err)
	second, err := manager.GetClient(redis.CooldownDBIndex)
	require.NoError(t, err)
	assert.Same(t, first, second)

	ctx := t.Context()
	require.NoError(t, first.Do(ctx, first.B().Set().Key("k").Value("v").Build()).Error())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
