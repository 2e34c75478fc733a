package redis

import (
	"context"
	"strconv"
	"testing"

	"ledger-service/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func miniredisConfig(t *testing.T, mr *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return config.RedisConfig{Host: mr.Host(), Port: port}
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), miniredisConfig(t, mr), zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	hc := NewHealthCheck(client)
	assert.Equal(t, "redis", hc.Name())
	assert.NoError(t, hc.Ping(context.Background()))

	mr.Close()
	assert.Error(t, hc.Ping(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := miniredisConfig(t, mr)
	mr.Close()

	_, err := NewClient(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "pinging redis")
}
