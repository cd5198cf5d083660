package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the Redis connection used by DialRedis.
type RedisConfig struct {
	ConnectionURL  string        `env:"AUTHKIT_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	KeyPrefix      string        `env:"AUTHKIT_REDIS_PREFIX" envDefault:"authkit:session:"`
	RetryAttempts  int           `env:"AUTHKIT_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"AUTHKIT_REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"AUTHKIT_REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// DialRedis connects to Redis and retries the ping up to RetryAttempts times,
// waiting RetryInterval between attempts.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrRedisURL
	}
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrRedisURL, err)
	}
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

// Redis stores each key as a plain Redis string under a prefix.
type Redis struct {
	db     redis.UniversalClient
	prefix string
}

// NewRedis wraps client. Every key is stored as prefix+key.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{db: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	v, err := r.db.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return r.db.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			full = append(full, r.prefix+k)
		}
	}
	if len(full) == 0 {
		return nil
	}
	return r.db.Del(ctx, full...).Err()
}

// Healthcheck pings the server.
func (r *Redis) Healthcheck(ctx context.Context) error {
	if err := r.db.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheck, err)
	}
	return nil
}
