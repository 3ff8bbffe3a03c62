package queue

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/vronney/orders-management-system/internal/config"
	"github.com/vronney/orders-management-system/internal/logger"
)

const popTimeout = 5 * time.Second

// Consumer reads replay jobs off the Redis list. Messages whose handler
// fails are pushed to the dead-letter list instead of being retried.
type Consumer struct {
	client    *redis.Client
	queueName string
	dlqName   string
	log       zerolog.Logger
}

type MessageHandler func(ctx context.Context, data []byte) error

func NewConsumer(client *redis.Client, cfg *config.Config) *Consumer {
	return &Consumer{
		client:    client,
		queueName: cfg.Redis.ReplayQueue,
		dlqName:   cfg.Redis.ReplayQueue + cfg.Redis.DLQSuffix,
		log:       logger.Get(),
	}
}

// ConsumeReplayQueue blocks, handing each queued message to handler,
// until the context is cancelled.
func (c *Consumer) ConsumeReplayQueue(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			result, err := c.client.BRPop(ctx, popTimeout, c.queueName).Result()
			if err != nil {
				if err == redis.Nil {
					continue // Timeout, continue polling
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.log.Error().Err(err).Str("queue", c.queueName).Msg("Failed to consume message")
				continue
			}

			if len(result) < 2 {
				continue
			}

			message := result[1]
			if err := handler(ctx, []byte(message)); err != nil {
				c.log.Error().Err(err).Str("queue", c.queueName).Msg("Failed to process message")
				if dlqErr := c.client.LPush(ctx, c.dlqName, message).Err(); dlqErr != nil {
					c.log.Error().Err(dlqErr).Str("dlq", c.dlqName).Msg("Failed to move message to DLQ")
				}
			}
		}
	}
}
