// Package queue publishes fetched candle batches for downstream consumers.
package queue

import (
	"context"
	"fmt"
	"time"

	"kfetcher/internal/config"
	"kfetcher/internal/model"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisQueue appends batches to Redis lists.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(cfg config.RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisQueueFromClient(client), nil
}

// NewRedisQueueFromClient wraps an existing client.
func NewRedisQueueFromClient(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

// Push right-pushes the whole batch onto key as a single JSON list entry.
func (q *RedisQueue) Push(ctx context.Context, key string, candles []model.Candle) error {
	data, err := encodeBatch(candles)
	if err != nil {
		return err
	}

	if err := q.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}

	return nil
}

// Close closes the Redis connection
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// encodeBatch encodes candles as a JSON array of 6-element arrays.
func encodeBatch(candles []model.Candle) ([]byte, error) {
	data, err := json.Marshal(candles)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	return data, nil
}
