package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lutefd/log-pipeline/internal/broker"
	"github.com/Lutefd/log-pipeline/internal/codec"
	"github.com/Lutefd/log-pipeline/internal/metrics"
	"github.com/Lutefd/log-pipeline/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key, value []byte) (broker.Delivery, error) {
	args := m.Called(ctx, key, value)
	return args.Get(0).(broker.Delivery), args.Error(1)
}

func (m *MockPublisher) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPublisher) Close() {
	m.Called()
}

func newTestProducer() (*Producer, *MockPublisher, *metrics.Metrics) {
	publisher := &MockPublisher{}
	m := metrics.New()
	return New(publisher, newTestGenerator(1), m), publisher, m
}

func TestProducer_Publish(t *testing.T) {
	p, publisher, m := newTestProducer()
	record := p.generator.GenerateTemplate(TemplatePaymentProcessed)

	publisher.On("Publish", mock.Anything, []byte(model.PaymentService), mock.MatchedBy(func(value []byte) bool {
		decoded, err := codec.Decode(value)
		return err == nil && assert.ObjectsAreEqual(record, decoded)
	})).Return(broker.Delivery{Topic: "application-logs", Partition: 2, Offset: 41}, nil)

	delivery, err := p.Publish(context.Background(), record)

	require.NoError(t, err)
	assert.Equal(t, int32(2), delivery.Partition)
	assert.Equal(t, int64(41), delivery.Offset)
	snapshot := p.Snapshot()
	assert.Equal(t, 1, snapshot.Published)
	assert.Equal(t, 1, snapshot.ByService[model.PaymentService])
	count, err := testutil.GatherAndCount(m.Registry, "log_pipeline_producer_records_published_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	publisher.AssertExpectations(t)
}

func TestProducer_PublishFailure(t *testing.T) {
	p, publisher, _ := newTestProducer()

	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(broker.Delivery{}, errors.New("NOT_ENOUGH_REPLICAS"))

	_, err := p.Publish(context.Background(), p.generator.GenerateTemplate(TemplateUserLogin))

	assert.Error(t, err)
	assert.Equal(t, 1, p.Snapshot().Failed)
	assert.Equal(t, 0, p.Snapshot().Published)
}

func TestProducer_PublishInvalidRecord(t *testing.T) {
	p, publisher, _ := newTestProducer()

	_, err := p.Publish(context.Background(), model.LogRecord{Level: model.LogLevelInfo})

	assert.ErrorIs(t, err, model.ErrMissingService)
	assert.Equal(t, 1, p.Snapshot().Failed)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestProducer_RunCount(t *testing.T) {
	p, publisher, _ := newTestProducer()

	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(broker.Delivery{Partition: 0, Offset: 1}, nil).Times(4)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(broker.Delivery{}, errors.New("request timed out")).Once()
	publisher.On("Flush", mock.Anything).Return(nil)
	publisher.On("Close").Return()

	result, err := p.Run(context.Background(), time.Millisecond, 5)

	require.NoError(t, err)
	assert.Equal(t, RunResult{Published: 4, Failed: 1}, result)
	publisher.AssertNumberOfCalls(t, "Publish", 5)
	publisher.AssertCalled(t, "Flush", mock.Anything)
	publisher.AssertCalled(t, "Close")
}

func TestProducer_RunInterrupted(t *testing.T) {
	p, publisher, _ := newTestProducer()

	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(broker.Delivery{}, nil)
	publisher.On("Flush", mock.Anything).Return(nil)
	publisher.On("Close").Return()

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	result, err := p.Run(ctx, 10*time.Millisecond, 0)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Published, 1)
	assert.Equal(t, 0, result.Failed)
	publisher.AssertCalled(t, "Close")
}

func TestProducer_RunAlreadyCancelled(t *testing.T) {
	p, publisher, _ := newTestProducer()

	publisher.On("Flush", mock.Anything).Return(errors.New("flush timed out"))
	publisher.On("Close").Return()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Run(ctx, time.Second, 0)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to flush publisher")
	assert.Equal(t, RunResult{}, result)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	publisher.AssertCalled(t, "Close")
}
