package consumer

import (
	"context"
	"errors"
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

type State int32

const (
	StateInitializing State = iota
	StateSubscribed
	StateConsuming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StateSubscribed:
		return "SUBSCRIBED"
	case StateConsuming:
		return "CONSUMING"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var ErrNotSubscribed = errors.New("consumer is not subscribed")

// SourceOpener joins the consumer group and returns the subscribed source.
type SourceOpener func(ctx context.Context) (broker.Source, error)

type SnapshotCache interface {
	Set(ctx context.Context, key string, snapshot model.StatsSnapshot, expiration time.Duration) error
}

// IterationResult describes one poll of the source.
type IterationResult struct {
	Received  int
	Processed int
	Malformed int
}

type Consumer struct {
	source      broker.Source
	dispatcher  *Dispatcher
	stats       *Stats
	metrics     *metrics.Metrics
	cache       SnapshotCache
	cacheKey    string
	reportEvery int

	state    atomic.Int32
	snapshot atomic.Pointer[model.StatsSnapshot]
}

type Option func(*Consumer)

// WithSnapshotCache publishes a stats snapshot under key on every report.
func WithSnapshotCache(cache SnapshotCache, key string) Option {
	return func(c *Consumer) {
		c.cache = cache
		c.cacheKey = key
	}
}

func WithReportEvery(n int) Option {
	return func(c *Consumer) {
		c.reportEvery = n
	}
}

func New(dispatcher *Dispatcher, m *metrics.Metrics, opts ...Option) *Consumer {
	c := &Consumer{
		dispatcher:  dispatcher,
		stats:       NewStats(),
		metrics:     m,
		reportEvery: commons.ConsumerReportEvery,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Store(int32(StateInitializing))
	c.storeSnapshot()
	return c
}

func (c *Consumer) State() State {
	return State(c.state.Load())
}

// Ready reports nil while the consumer is subscribed or consuming.
func (c *Consumer) Ready() error {
	switch state := c.State(); state {
	case StateSubscribed, StateConsuming:
		return nil
	default:
		return fmt.Errorf("consumer is %s", state)
	}
}

// Snapshot is safe to call from any goroutine.
func (c *Consumer) Snapshot() model.StatsSnapshot {
	return *c.snapshot.Load()
}

func (c *Consumer) Subscribe(ctx context.Context, open SourceOpener) error {
	if c.State() != StateInitializing {
		return fmt.Errorf("cannot subscribe in state %s", c.State())
	}
	source, err := open(ctx)
	if err != nil {
		c.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	c.source = source
	c.state.Store(int32(StateSubscribed))
	return nil
}

// HandleMessage decodes and processes one message. A payload that cannot be
// decoded is counted as an error and skipped.
func (c *Consumer) HandleMessage(msg broker.Message) bool {
	record, err := codec.Decode(msg.Value)
	if err != nil {
		c.stats.RecordFailure()
		c.metrics.DecodeFailed()
		logger.Errorf("skipping malformed record at %s[%d]@%d: %v", msg.Topic, msg.Partition, msg.Offset, err)
		return false
	}
	c.dispatcher.Process(c.stats, record)
	return true
}

// Iterate processes one poll. Records returned together with a broker error
// are processed before the error is returned.
func (c *Consumer) Iterate(ctx context.Context) (IterationResult, error) {
	messages, err := c.source.Poll(ctx)

	result := IterationResult{Received: len(messages)}
	for _, msg := range messages {
		if !c.HandleMessage(msg) {
			result.Malformed++
			continue
		}
		result.Processed++
		if c.reportEvery > 0 && c.stats.Total%c.reportEvery == 0 {
			c.report()
		}
	}
	if result.Received > 0 {
		c.storeSnapshot()
	}
	return result, err
}

// Run consumes until ctx is done or the source fails. Either way the final
// stats are reported and the source is closed; only a source failure is
// returned.
func (c *Consumer) Run(ctx context.Context) error {
	if c.State() != StateSubscribed {
		return ErrNotSubscribed
	}
	c.state.Store(int32(StateConsuming))
	logger.Info("Consumer started, waiting for records")

	var runErr error
	for ctx.Err() == nil {
		if _, err := c.Iterate(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				break
			}
			logger.Errorf("consumer stopping on broker error: %v", err)
			runErr = fmt.Errorf("consume loop: %w", err)
			break
		}
	}

	c.stop()
	return runErr
}

func (c *Consumer) stop() {
	c.state.Store(int32(StateStopped))
	logger.Info("Consumer stopped, final stats:")
	c.report()
	c.source.Close()
}

func (c *Consumer) report() {
	c.stats.Report()
	c.storeSnapshot()
	if c.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.cache.Set(ctx, c.cacheKey, c.Snapshot(), commons.SnapshotExpiration); err != nil {
		logger.Errorf("failed to publish stats snapshot: %v", err)
	}
}

func (c *Consumer) storeSnapshot() {
	snap := c.stats.Snapshot()
	c.snapshot.Store(&snap)
}
