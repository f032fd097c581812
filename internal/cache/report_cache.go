// Package cache provides Redis-based caching for backtest reports.
// When Redis is unavailable, operations return errors that callers
// should handle by falling back to database queries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/config"
)

const (
	keyResult = "backtest:result:%s"
	keyTrades = "backtest:trades:%s"
)

// ErrMiss is returned when the key is absent. Callers fall back to the
// repository.
var ErrMiss = errors.New("cache: miss")

// ReportCache caches serialized backtest reports keyed by result id.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewReportCache connects to Redis and verifies connectivity.
func NewReportCache(cfg config.RedisConfig, logger zerolog.Logger) (*ReportCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: connect to redis: %w", err)
	}

	ttl := time.Duration(cfg.TTLSec) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReportCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "ReportCache").Logger(),
	}, nil
}

// SetResult caches any JSON-serializable report under the result id.
func (c *ReportCache) SetResult(ctx context.Context, id uuid.UUID, report any) error {
	return c.set(ctx, fmt.Sprintf(keyResult, id), report)
}

// GetResult loads a cached report into dest.
func (c *ReportCache) GetResult(ctx context.Context, id uuid.UUID, dest any) error {
	return c.get(ctx, fmt.Sprintf(keyResult, id), dest)
}

// SetTrades caches the trade list of a result.
func (c *ReportCache) SetTrades(ctx context.Context, id uuid.UUID, trades any) error {
	return c.set(ctx, fmt.Sprintf(keyTrades, id), trades)
}

// GetTrades loads a cached trade list into dest.
func (c *ReportCache) GetTrades(ctx context.Context, id uuid.UUID, dest any) error {
	return c.get(ctx, fmt.Sprintf(keyTrades, id), dest)
}

// Close releases the Redis connection.
func (c *ReportCache) Close() error {
	return c.client.Close()
}

func (c *ReportCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

func (c *ReportCache) get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return fmt.Errorf("cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache: unmarshal %s: %w", key, err)
	}
	return nil
}
