package lock_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"masareefy/internal/config"
	"masareefy/internal/infra"
)

var Module = fx.Provide(provideLocker)

// provideLocker uses Redis when REDIS_ADDR is set and a process-local lock otherwise.
func provideLocker(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) infra.Locker {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set; expiry sweep lock is process-local")
		return infra.NewLocalLocker()
	}

	client := infra.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("redis unreachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return infra.NewRedisLocker(client)
}
