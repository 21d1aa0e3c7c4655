package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pulsecheck/backend/internal/models"
)

// Cache holds the latest analysis result per customer so dashboard reads
// skip the database. Implementations must be safe for concurrent use.
type Cache interface {
	SetLatestAnalysis(ctx context.Context, customerID uuid.UUID, result models.AnalysisResult, ttl time.Duration) error
	GetLatestAnalysis(ctx context.Context, customerID uuid.UUID) (models.AnalysisResult, bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// RedisCache implements Cache on go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) SetLatestAnalysis(ctx context.Context, customerID uuid.UUID, result models.AnalysisResult, ttl time.Duration) error {
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestAnalysisKey(customerID), b, ttl).Err()
}

func (c *RedisCache) GetLatestAnalysis(ctx context.Context, customerID uuid.UUID) (models.AnalysisResult, bool, error) {
	val, err := c.client.Get(ctx, latestAnalysisKey(customerID)).Bytes()
	if err == redis.Nil {
		return models.AnalysisResult{}, false, nil
	}
	if err != nil {
		return models.AnalysisResult{}, false, err
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(val, &result); err != nil {
		return models.AnalysisResult{}, false, err
	}
	return result, true, nil
}

// NopCache is used when no Redis URL is configured.
type NopCache struct{}

func (NopCache) SetLatestAnalysis(context.Context, uuid.UUID, models.AnalysisResult, time.Duration) error {
	return nil
}

func (NopCache) GetLatestAnalysis(context.Context, uuid.UUID) (models.AnalysisResult, bool, error) {
	return models.AnalysisResult{}, false, nil
}

func (NopCache) Ping(context.Context) error { return nil }
func (NopCache) Close() error               { return nil }
