package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewClient_HostPort(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewClient(Config{Host: mr.Host(), Port: mr.Port(), PoolSize: 4}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.NoError(t, c.Ping(context.Background()))
}

func TestNewClient_URL(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewClient(Config{URL: "redis://" + mr.Addr() + "/0"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(Config{URL: "http://nope"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(Config{URL: "redis://" + addr}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
