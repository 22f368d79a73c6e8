package queue

import (
	"context"
	"fmt"

	"kfetcher/internal/config"
	"kfetcher/internal/model"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer used by KafkaQueue.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaQueue publishes each batch as one message keyed by the queue key, so
// batches for the same market and period land on the same partition in order.
type KafkaQueue struct {
	writer messageWriter
}

// NewKafkaQueue creates a queue writing to cfg.Topic on cfg.Brokers.
func NewKafkaQueue(cfg config.KafkaConfig) *KafkaQueue {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaQueue{writer: writer}
}

// Push writes the batch as a single message.
func (q *KafkaQueue) Push(ctx context.Context, key string, candles []model.Candle) error {
	data, err := encodeBatch(candles)
	if err != nil {
		return err
	}

	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	return nil
}

// Close flushes and closes the writer.
func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}
