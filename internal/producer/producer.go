package producer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Lutefd/log-pipeline/internal/broker"
	"github.com/Lutefd/log-pipeline/internal/codec"
	"github.com/Lutefd/log-pipeline/internal/commons"
	"github.com/Lutefd/log-pipeline/internal/logger"
	"github.com/Lutefd/log-pipeline/internal/metrics"
	"github.com/Lutefd/log-pipeline/internal/model"
)

type RunResult struct {
	Published int
	Failed    int
}

// Producer owns its publisher. Counters are mutated only by the goroutine
// running Run; other goroutines read them through Snapshot.
type Producer struct {
	publisher broker.Publisher
	generator *Generator
	metrics   *metrics.Metrics

	published int
	failed    int
	byService map[string]int
	snapshot  atomic.Pointer[model.ProducerSnapshot]
}

func New(publisher broker.Publisher, generator *Generator, m *metrics.Metrics) *Producer {
	p := &Producer{
		publisher: publisher,
		generator: generator,
		metrics:   m,
		byService: make(map[string]int),
	}
	p.storeSnapshot()
	return p
}

// Publish encodes record, keys it by service and blocks until the broker
// acknowledges it. Failures are logged and counted; the caller decides
// whether to continue.
func (p *Producer) Publish(ctx context.Context, record model.LogRecord) (broker.Delivery, error) {
	defer p.storeSnapshot()

	value, err := codec.Encode(record)
	if err != nil {
		p.recordFailure(record.Service)
		logger.Errorf("failed to encode record from %s: %v", record.Service, err)
		return broker.Delivery{}, err
	}

	start := time.Now()
	delivery, err := p.publisher.Publish(ctx, []byte(record.Service), value)
	if err != nil {
		p.recordFailure(record.Service)
		logger.Errorf("failed to publish record from %s: %v", record.Service, err)
		return broker.Delivery{}, err
	}

	p.published++
	p.byService[record.Service]++
	p.metrics.Published(record.Service, time.Since(start).Seconds())
	logger.Infof("published %s %s record to partition %d at offset %d", record.Level, record.Service, delivery.Partition, delivery.Offset)
	return delivery, nil
}

// Run generates and publishes one record every interval, count times or until
// ctx is done when count is zero. The publisher is flushed and closed before
// Run returns.
func (p *Producer) Run(ctx context.Context, interval time.Duration, count int) (RunResult, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	iterations := 0
loop:
	for count == 0 || iterations < count {
		if ctx.Err() != nil {
			break
		}
		p.Publish(ctx, p.generator.Generate())
		iterations++

		if count != 0 && iterations >= count {
			break
		}
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
	}

	if ctx.Err() != nil {
		logger.Info("Producer interrupted, flushing pending records")
	}
	err := p.close()

	result := RunResult{Published: p.published, Failed: p.failed}
	logger.Infof("Producer stopped: %d published, %d failed", result.Published, result.Failed)
	return result, err
}

func (p *Producer) Snapshot() model.ProducerSnapshot {
	return *p.snapshot.Load()
}

func (p *Producer) close() error {
	flushCtx, cancel := context.WithTimeout(context.Background(), commons.ProducerFlushTimeout)
	defer cancel()
	defer p.publisher.Close()

	if err := p.publisher.Flush(flushCtx); err != nil {
		return fmt.Errorf("failed to flush publisher: %w", err)
	}
	return nil
}

func (p *Producer) recordFailure(service string) {
	p.failed++
	p.metrics.PublishFailed(service)
}

func (p *Producer) storeSnapshot() {
	byService := make(map[string]int, len(p.byService))
	for k, v := range p.byService {
		byService[k] = v
	}
	p.snapshot.Store(&model.ProducerSnapshot{
		Published: p.published,
		Failed:    p.failed,
		ByService: byService,
		TakenAt:   time.Now().UTC(),
	})
}
