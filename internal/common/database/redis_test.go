package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff-loans/internal/common/config"
)

func TestRedis_PingAndClose(t *testing.T) {
	mr := miniredis.RunT(t)

	c := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())

	mr.Close()
	down := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer down.Close()
	err := down.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}
