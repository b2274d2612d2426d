package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/railzwaylabs/wastebill/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("redis",
	fx.Provide(NewLocker),
)

// NewClient connects to the configured instance and fails fast if it is unreachable.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// NewLocker returns a Redis-backed Locker when Redis is enabled and a NopLocker
// otherwise.
func NewLocker(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Locker, error) {
	if !cfg.Redis.Enabled {
		log.Info("redis disabled, invoice generation relies on database constraints only")
		return NopLocker{}, nil
	}

	client, err := NewClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisLocker(client, cfg.Redis.LockTTL, log), nil
}
