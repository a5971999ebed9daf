// Package lock provides a Redis lease that lets several processes agree on a single holder.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// RedisLock is a lease on a single Redis key. Each acquisition stores a fresh token so that
// only the holder can release it.
type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisLock creates a lease on key that expires after ttl unless released or extended.
func NewRedisLock(client redis.UniversalClient, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl}
}

// TryLock attempts to take the lease without waiting. When ok is true, unlock releases it.
func (l *RedisLock) TryLock(ctx context.Context) (func(context.Context) error, bool, error) {
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !acquired {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		return l.release(ctx, token)
	}
	return unlock, true, nil
}

func (l *RedisLock) release(ctx context.Context, token string) error {
	result, err := l.client.Eval(ctx, unlockScript, []string{l.key}, token).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", l.key)
	}
	return nil
}

// NewRedisClient parses a redis:// URL and returns a client for it.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
