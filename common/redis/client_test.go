package redis

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/lyzr/dbpatcher/common/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	log := logger.NewWithWriter(io.Discard, "error", "text")
	c, err := New(ctx, Options{Addr: "127.0.0.1:1"}, log)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "redis ping")
}

func TestClient_ErrorsAreWrapped(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	c := NewClient(rdb, logger.NewWithWriter(io.Discard, "error", "text"))
	defer c.Close()

	_, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "failed to get key k")

	err = c.SetWithExpiry(context.Background(), "k", "v", time.Minute)
	assert.Contains(t, err.Error(), "failed to set key k")
}
