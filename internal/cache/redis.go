package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "video-search:results"

type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *Redis) generationKey() string {
	return r.prefix + ":generation"
}

func (r *Redis) generation(ctx context.Context) (Generation, error) {
	gen, err := r.client.Get(ctx, r.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	return Generation(gen), nil
}

func (r *Redis) entryKey(gen Generation, key string) string {
	return fmt.Sprintf("%s:%d:%s", r.prefix, gen, key)
}

func (r *Redis) Get(ctx context.Context, key string, dst any) (Generation, bool, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return 0, false, err
	}

	data, err := r.client.Get(ctx, r.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	}
	if err != nil {
		return gen, false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return gen, false, fmt.Errorf("decode cached entry: %w", err)
	}
	return gen, true, nil
}

func (r *Redis) Set(ctx context.Context, gen Generation, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return r.client.Set(ctx, r.entryKey(gen, key), data, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context) error {
	return r.client.Incr(ctx, r.generationKey()).Err()
}
