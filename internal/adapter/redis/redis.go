package redis

import (
	"context"
	"errors"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	redisClient "github.com/redis/go-redis/v9"
)

const opTimeout = 2 * time.Second

type RedisAdapter struct {
	client redisClient.Cmdable
}

func NewRedisAdapter(client redisClient.Cmdable) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisClient.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *RedisAdapter) Set(key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisAdapter) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.client.Del(ctx, key).Err()
}
