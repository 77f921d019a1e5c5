package tokenstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis keeps values in a Redis instance under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. An empty prefix defaults to "attendclient:session:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "attendclient:session:"
	}
	return &Redis{client: client, prefix: prefix}
}

// Get returns the value for key.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

// Set stores value under key with no expiry; the server owns token lifetime.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
