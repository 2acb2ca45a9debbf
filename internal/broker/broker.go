// Package broker adapts the Kafka client to the small publish and poll
// surface the producer and consumer loops need.
package broker

import (
	"context"
	"errors"
	"time"
)

var ErrClientClosed = errors.New("broker client closed")

// Message is one record read from the topic.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Delivery is the broker's acknowledgment of a published record.
type Delivery struct {
	Topic     string
	Partition int32
	Offset    int64
}

type Publisher interface {
	Publish(ctx context.Context, key, value []byte) (Delivery, error)
	Flush(ctx context.Context) error
	Close()
}

type Source interface {
	// Poll waits at most one poll timeout and returns whatever arrived.
	// An empty batch with a nil error means nothing arrived in time. A
	// batch returned with an error was fetched before the failure and
	// still has to be processed.
	Poll(ctx context.Context) ([]Message, error)
	Close()
}
