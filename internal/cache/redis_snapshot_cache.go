package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lutefd/log-pipeline/internal/model"
	"github.com/redis/go-redis/v9"
)

var newClient = redis.NewClient

type RedisSnapshotCache struct {
	client *redis.Client
}

func NewRedisSnapshotCache(addr, password string) (*RedisSnapshotCache, error) {
	client := newClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSnapshotCache{client: client}, nil
}

func (c *RedisSnapshotCache) Get(ctx context.Context, key string) (model.StatsSnapshot, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.StatsSnapshot{}, ErrNotFound
		}
		return model.StatsSnapshot{}, fmt.Errorf("failed to get from cache: %w", err)
	}

	var snapshot model.StatsSnapshot
	if err := json.Unmarshal(val, &snapshot); err != nil {
		return model.StatsSnapshot{}, fmt.Errorf("failed to parse cached snapshot: %w", err)
	}
	return snapshot, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, key string, snapshot model.StatsSnapshot, expiration time.Duration) error {
	val, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key, val, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}
