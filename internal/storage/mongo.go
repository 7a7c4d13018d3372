package storage

import (
	"context"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func NewMongo(lc fx.Lifecycle, cfg *config.Config, lg *logging.ZapLogger) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	m := &Mongo{Client: client, DB: client.Database(cfg.MongoDatabase)}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx, nil); err != nil {
					return err
				}

				lg.DebugCtx(ctx, "mongo reachable", zap.String("database", cfg.MongoDatabase))
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return client.Disconnect(ctx)
			},
		},
	)

	return m, nil
}
