package db

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adxhq/campaignd/internal/schema"
)

func newTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := InitRedis(mr.Addr(), "adx:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testCampaign(id string, active int) *schema.Campaign {
	return &schema.Campaign{
		ID:     id,
		Active: active,
		Rev:    1,
		Contents: schema.Contents{
			ID:   id,
			Rev:  1,
			Name: "published campaign",
		},
	}
}

func TestPublishCampaign(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.PublishCampaign(ctx, testCampaign("cmp-1", 1)))

	raw, err := store.Client.Get(ctx, "adx:campaign:cmp-1").Result()
	require.NoError(t, err)

	var ct schema.Contents
	require.NoError(t, json.Unmarshal([]byte(raw), &ct))
	assert.Equal(t, "cmp-1", ct.ID)
	assert.Equal(t, "published campaign", ct.Name)
}

func TestPublishInactiveCampaignWithdraws(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.PublishCampaign(ctx, testCampaign("cmp-2", 1)))
	require.NoError(t, store.PublishCampaign(ctx, testCampaign("cmp-2", 0)))

	_, err := store.Client.Get(ctx, "adx:campaign:cmp-2").Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRemoveCampaign(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.PublishCampaign(ctx, testCampaign("cmp-3", 1)))
	require.NoError(t, store.RemoveCampaign(ctx, "cmp-3"))

	_, err := store.Client.Get(ctx, "adx:campaign:cmp-3").Result()
	assert.ErrorIs(t, err, redis.Nil)

	// removing an absent campaign is not an error
	require.NoError(t, store.RemoveCampaign(ctx, "cmp-missing"))
}
