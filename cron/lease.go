package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lease is a best-effort mutual exclusion between periodic runs on different instances.
type Lease interface {
	// Acquire returns ok=false when another holder owns key. release must be called once when ok.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLease implements Lease with SET NX and a token-checked delete.
type RedisLease struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisLease(client *redis.Client, logger *zap.Logger) *RedisLease {
	return &RedisLease{client: client, logger: logger}
}

func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("failed to release lease", zap.String("key", key), zap.Error(err))
		}
	}
	return release, true, nil
}
