package config

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClientConnectsViaAddr(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())

	client := NewRedisClient()
	require.NotNil(t, client)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewRedisClientReturnsNilWhenUnreachable(t *testing.T) {
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")

	assert.Nil(t, NewRedisClient())
}
