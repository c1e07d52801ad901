package app

import (
	"context"
	"testing"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosersRunInReverse(t *testing.T) {
	var order []string
	var c closers
	c.add(func() { order = append(order, "tracer") })
	c.add(func() { order = append(order, "redis") })
	c.add(func() { order = append(order, "db") })

	c.run()
	assert.Equal(t, []string{"db", "redis", "tracer"}, order)
}

func TestNewFailsWithoutRedis(t *testing.T) {
	cfg := config.Defaults()
	cfg.App.Env = "test"
	cfg.Token.Secret = "secret"
	cfg.Redis.Address = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	application, err := New(ctx, cfg)
	require.Error(t, err)
	assert.Nil(t, application)
	assert.Contains(t, err.Error(), "Redis")
}
