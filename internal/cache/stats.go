package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vronney/orders-management-system/internal/logger"
	"github.com/vronney/orders-management-system/internal/model"
)

const statsKey = "orders:stats"

// StatsCache keeps aggregate order statistics in Redis so repeated
// dashboard polls do not hammer Postgres. Every cache failure degrades
// to a miss; the store stays authoritative.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context) *model.OrderStats {
	data, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Get().Warn().Err(err).Msg("Failed to read stats cache")
		}
		return nil
	}

	var stats model.OrderStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil
	}
	return &stats
}

func (c *StatsCache) Set(ctx context.Context, stats *model.OrderStats) {
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsKey, data, c.ttl).Err(); err != nil {
		logger.Get().Warn().Err(err).Msg("Failed to write stats cache")
	}
}

func (c *StatsCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		logger.Get().Warn().Err(err).Msg("Failed to invalidate stats cache")
	}
}
