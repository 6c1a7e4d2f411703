package bootstrap

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/lyzr/dbpatcher/common/cache"
	"github.com/lyzr/dbpatcher/common/config"
	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("dbpatcher")
	require.NoError(t, err)
	return cfg
}

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error", "text")
}

func TestSetup_MemoryCache(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Cache.Backend = "memory"
	cfg.Cache.Enabled = true

	c, err := Setup(ctx, "dbpatcher", WithCustomConfig(cfg), WithCustomLogger(quietLogger()), WithoutTelemetry())
	require.NoError(t, err)

	assert.IsType(t, &cache.MemoryCache{}, c.Cache)
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Telemetry)
	assert.NoError(t, c.Health(ctx))
	assert.NoError(t, c.Shutdown(ctx))
}

func TestSetup_WithoutCache(t *testing.T) {
	ctx := context.Background()

	c, err := Setup(ctx, "dbpatcher", WithCustomConfig(testConfig(t)), WithCustomLogger(quietLogger()), WithoutCache(), WithoutTelemetry())
	require.NoError(t, err)
	assert.Nil(t, c.Cache)
	assert.NoError(t, c.Shutdown(ctx))
}

func TestSetup_RedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Backend = "redis"
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = 1

	_, err := Setup(ctx, "dbpatcher", WithCustomConfig(cfg), WithCustomLogger(quietLogger()), WithoutTelemetry())
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestShutdown_RunsCleanupsInReverse(t *testing.T) {
	var order []int
	c := &Components{Logger: quietLogger()}
	c.addCleanup(func() error { order = append(order, 1); return nil })
	c.addCleanup(func() error { order = append(order, 2); return nil })

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Equal(t, []int{2, 1}, order)

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Equal(t, []int{2, 1}, order)
}
