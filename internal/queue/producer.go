package queue

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/vronney/orders-management-system/internal/config"
	"github.com/vronney/orders-management-system/internal/model"
)

type Producer struct {
	client    *redis.Client
	queueName string
}

func NewProducer(client *redis.Client, cfg *config.Config) *Producer {
	return &Producer{
		client:    client,
		queueName: cfg.Redis.ReplayQueue,
	}
}

// EnqueueReplayJob schedules an archived upload for re-ingestion.
func (p *Producer) EnqueueReplayJob(ctx context.Context, job model.ReplayJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.client.LPush(ctx, p.queueName, data).Err()
}
