package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/ArdaAlp/Binary-Power/internal/storage"
	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "idempotency:"

type IdempotencyRepository struct {
	client IdempotencyStorage
	lg     *logging.ZapLogger
	ttl    time.Duration
}

type IdempotencyStorage interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

func NewIdempotencyRepository(rds *storage.Redis, lg *logging.ZapLogger, cfg *config.Config) *IdempotencyRepository {
	return &IdempotencyRepository{
		client: rds.Client,
		lg:     lg,
		ttl:    time.Duration(cfg.IdempotencyTTL) * time.Second,
	}
}

// Get returns nil on a cache miss.
func (rep *IdempotencyRepository) Get(ctx context.Context, key string) (*models.CachedResponse, error) {
	val, err := rep.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency_repository: get key error %w", err)
	}

	resp := &models.CachedResponse{}
	if err := json.Unmarshal(val, resp); err != nil {
		return nil, fmt.Errorf("idempotency_repository: unmarshal cached response error %w", err)
	}

	return resp, nil
}

func (rep *IdempotencyRepository) Save(ctx context.Context, key string, in *models.CachedResponse) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("idempotency_repository: marshal response error %w", err)
	}

	if err := rep.client.Set(ctx, idempotencyKeyPrefix+key, b, rep.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency_repository: save key error %w", err)
	}

	return nil
}
