// Package cache stores JSON-encoded values in Redis. When no Redis address
// is configured a no-op implementation is used and every lookup misses.
package cache

import (
	"context"
	"time"

	"github.com/newsstandhq/newsstand/pkg/config"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/encoding/json"
)

type Cache interface {
	// Get decodes the value at key into result and reports whether it was
	// found.
	Get(ctx context.Context, key string, result interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Incr atomically increments the integer at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}

// New connects to Redis when cfg.RedisAddr is set and returns a no-op cache
// otherwise.
func New(ctx context.Context, cfg *config.Config) (Cache, error) {
	if cfg.RedisAddr == "" {
		return Noop{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to reach redis at %s", cfg.RedisAddr)
	}

	return &Redis{client: client}, nil
}

type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string, result interface{}) (bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.WithStack(err)
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, errors.WithStack(err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(r.client.Set(ctx, key, data, ttl).Err())
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	return n, errors.WithStack(err)
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error)        { return false, nil }
func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Incr(context.Context, string) (int64, error)                   { return 0, nil }
func (Noop) Close() error                                                  { return nil }
