package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlessioChianetta/leadgate/pkg/logging"
)

const cacheKeyPrefix = "webhook:endpoint:"

// CachedRepository decorates a Repository with a short-lived Redis read
// cache for secret lookups. The cache holds read-only gating data; counter
// increments always go straight to the store and staleness is bounded by the
// TTL. Cache failures degrade to the underlying repository.
type CachedRepository struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedRepository {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *CachedRepository) GetBySecret(ctx context.Context, secret string) (*Config, error) {
	key := cacheKeyPrefix + secret

	raw, err := r.client.Get(ctx, key).Result()
	if err == nil {
		var cfg Config
		if err := json.Unmarshal([]byte(raw), &cfg); err == nil {
			cfg.SecretKey = secret
			return &cfg, nil
		}
		r.logger.Warn("corrupt endpoint cache entry, falling through", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("endpoint cache read failed", "error", err)
	}

	cfg, err := r.inner.GetBySecret(ctx, secret)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(cfg); err == nil {
		if err := r.client.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
			r.logger.Warn("endpoint cache write failed", "error", err)
		}
	}
	return cfg, nil
}

func (r *CachedRepository) ListByConsultant(ctx context.Context, consultantID string) ([]*Config, error) {
	return r.inner.ListByConsultant(ctx, consultantID)
}

func (r *CachedRepository) IncrementLeadsCreated(ctx context.Context, id string) error {
	return r.inner.IncrementLeadsCreated(ctx, id)
}

func (r *CachedRepository) IncrementLeadsSkipped(ctx context.Context, id string) error {
	return r.inner.IncrementLeadsSkipped(ctx, id)
}
