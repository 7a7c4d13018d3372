package storage

import (
	"context"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(lc fx.Lifecycle, cfg *config.Config, lg *logging.ZapLogger) *Redis {
	rds := &Redis{
		Client: redis.NewClient(&redis.Options{Addr: cfg.RedisAddress}),
	}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				// the cache is optional, requests fall through to the ledger while it is down
				if err := rds.Client.Ping(ctx).Err(); err != nil {
					lg.WarnCtx(ctx, "redis unreachable, idempotency cache disabled until it recovers", zap.Error(err))
				}

				return nil
			},
			OnStop: func(ctx context.Context) error {
				return rds.Client.Close()
			},
		},
	)

	return rds
}
