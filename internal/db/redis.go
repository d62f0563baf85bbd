package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adxhq/campaignd/internal/schema"
)

// RedisStore publishes canonical campaign bodies to the key space the bid
// engine reads from.
type RedisStore struct {
	Client *redis.Client
	Prefix string
	logger *zap.Logger
}

// InitRedis connects to Redis and verifies connectivity. The prefix is
// prepended to every key, matching the bid engine's key space.
func InitRedis(addr, prefix string, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.L()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", addr), zap.String("prefix", prefix))
	return &RedisStore{Client: client, Prefix: prefix, logger: logger}, nil
}

// Close releases the connection pool.
func (r *RedisStore) Close() error {
	return r.Client.Close()
}

func (r *RedisStore) campaignKey(id string) string {
	return r.Prefix + "campaign:" + id
}

// PublishCampaign writes an active campaign's body for the bid engine, or
// withdraws it when the campaign is inactive.
func (r *RedisStore) PublishCampaign(ctx context.Context, c *schema.Campaign) error {
	if c.Active == 0 {
		return r.RemoveCampaign(ctx, c.ID)
	}
	body, err := json.Marshal(c.Contents)
	if err != nil {
		return fmt.Errorf("marshal campaign %s: %w", c.ID, err)
	}
	if err := r.Client.Set(ctx, r.campaignKey(c.ID), body, 0).Err(); err != nil {
		return fmt.Errorf("publish campaign %s: %w", c.ID, err)
	}
	r.logger.Debug("published campaign", zap.String("campaign_id", c.ID), zap.Int("rev", c.Rev))
	return nil
}

// RemoveCampaign withdraws a campaign from the bid engine's key space.
func (r *RedisStore) RemoveCampaign(ctx context.Context, id string) error {
	if err := r.Client.Del(ctx, r.campaignKey(id)).Err(); err != nil {
		return fmt.Errorf("remove campaign %s: %w", id, err)
	}
	return nil
}
