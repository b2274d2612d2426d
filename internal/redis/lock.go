package redis

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrNotAcquired = errors.New("lock_not_acquired")

const (
	keyPrefix  = "wastebill:lock:"
	defaultTTL = 30 * time.Second
)

// Locker serialises work on a key across processes. The returned unlock func is
// safe to call once the work is done, even if the lock already expired.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), err error)
}

// NopLocker grants every request.
type NopLocker struct{}

func (NopLocker) TryLock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes the key only while it still holds our token, so a holder
// whose TTL lapsed cannot release a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		log:    log.Named("redis.lock"),
	}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	fullKey := keyPrefix + key
	token := ulid.Make().String()

	ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil {
			l.log.Warn("failed to release lock", zap.String("key", fullKey), zap.Error(err))
		}
	}, nil
}
