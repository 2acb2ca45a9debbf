package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lutefd/log-pipeline/internal/commons"
	"github.com/Lutefd/log-pipeline/internal/logger"
	"github.com/twmb/franz-go/pkg/kgo"
)

type KafkaPublisher struct {
	client *kgo.Client
}

func ProducerOptions(servers []string, topic string) []kgo.Opt {
	return []kgo.Opt{
		kgo.SeedBrokers(servers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordRetries(commons.ProducerRecordRetries),
		kgo.ProducerLinger(commons.ProducerLinger),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	}
}

// NewKafkaPublisher connects and pings the cluster so unreachable bootstrap
// servers fail before the first record is generated.
func NewKafkaPublisher(ctx context.Context, servers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(ProducerOptions(servers, topic)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaPublisher{client: client}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, key, value []byte) (Delivery, error) {
	record, err := p.client.ProduceSync(ctx, &kgo.Record{Key: key, Value: value}).First()
	if err != nil {
		if errors.Is(err, kgo.ErrClientClosed) {
			return Delivery{}, ErrClientClosed
		}
		return Delivery{}, fmt.Errorf("failed to publish record: %w", err)
	}
	return Delivery{Topic: record.Topic, Partition: record.Partition, Offset: record.Offset}, nil
}

func (p *KafkaPublisher) Flush(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush producer: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

type KafkaSource struct {
	client      *kgo.Client
	pollTimeout time.Duration
}

func ConsumerOptions(servers []string, topic, groupID string) []kgo.Opt {
	return []kgo.Opt{
		kgo.SeedBrokers(servers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.AutoCommitInterval(commons.ConsumerAutoCommitInterval),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	}
}

// NewKafkaSource joins groupID on topic. Offsets are committed on an interval,
// so a crash can replay up to one interval of records.
func NewKafkaSource(ctx context.Context, servers []string, topic, groupID string) (*KafkaSource, error) {
	client, err := kgo.NewClient(ConsumerOptions(servers, topic, groupID)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaSource{client: client, pollTimeout: commons.ConsumerPollTimeout}, nil
}

func (s *KafkaSource) Poll(ctx context.Context) ([]Message, error) {
	pollCtx, cancel := context.WithTimeout(ctx, s.pollTimeout)
	defer cancel()
	return collect(s.client.PollFetches(pollCtx))
}

func (s *KafkaSource) Close() {
	s.client.Close()
}

// collect flattens a fetch. Records from healthy partitions are always
// returned, even alongside an error. Poll timeouts and cancellation are not
// errors, and data loss is logged because the client has already reset the
// offset. A closed client and any other partition error are returned.
func collect(fetches kgo.Fetches) ([]Message, error) {
	var messages []Message
	fetches.EachRecord(func(r *kgo.Record) {
		messages = append(messages, Message{
			Topic:     r.Topic,
			Partition: r.Partition,
			Offset:    r.Offset,
			Key:       r.Key,
			Value:     r.Value,
			Timestamp: r.Timestamp,
		})
	})

	var fatal error
	for _, fe := range fetches.Errors() {
		var dataLoss *kgo.ErrDataLoss
		switch {
		case errors.Is(fe.Err, context.DeadlineExceeded), errors.Is(fe.Err, context.Canceled):
			continue
		case errors.As(fe.Err, &dataLoss):
			logger.Warnf("fetch %s[%d]: %v", fe.Topic, fe.Partition, fe.Err)
		case errors.Is(fe.Err, kgo.ErrClientClosed):
			if fatal == nil {
				fatal = ErrClientClosed
			}
		default:
			if fatal == nil {
				fatal = fmt.Errorf("fetch %s[%d]: %w", fe.Topic, fe.Partition, fe.Err)
			}
		}
	}
	return messages, fatal
}

func ping(ctx context.Context, client *kgo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, commons.BrokerPingTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach bootstrap servers: %w", err)
	}
	return nil
}
