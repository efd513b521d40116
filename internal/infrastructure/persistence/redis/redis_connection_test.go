package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vincent/internal/config"
	"github.com/turtacn/vincent/pkg/logger"
)

func TestRedisConnection_Lifecycle(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	rc := NewRedisConnection(config.RedisConfig{Enabled: true, Address: s.Addr()}, logger.NewNoopLogger())
	assert.Nil(t, rc.GetClient())
	assert.Error(t, rc.Ping(ctx))

	require.NoError(t, rc.Connect(ctx))
	require.NotNil(t, rc.GetClient())
	assert.NoError(t, rc.Ping(ctx))

	st, err := rc.Status(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, st.TotalConns, uint32(1))

	require.NoError(t, rc.Close())
	assert.Nil(t, rc.GetClient())
}

func TestRedisConnection_ConnectFails(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	addr := s.Addr()
	s.Close()

	rc := NewRedisConnection(config.RedisConfig{Enabled: true, Address: addr}, nil)
	err = rc.Connect(context.Background())
	assert.Error(t, err)
	assert.Nil(t, rc.GetClient())
}
