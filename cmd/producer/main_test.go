package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/Lutefd/log-pipeline/internal/broker"
	"github.com/Lutefd/log-pipeline/internal/codec"
	"github.com/Lutefd/log-pipeline/internal/commons"
	"github.com/Lutefd/log-pipeline/internal/metrics"
	"github.com/Lutefd/log-pipeline/internal/producer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, key, value []byte) (broker.Delivery, error) {
	args := m.Called(ctx, key, value)
	return args.Get(0).(broker.Delivery), args.Error(1)
}

func (m *mockPublisher) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockPublisher) Close() {
	m.Called()
}

func testDependencies(publisher broker.Publisher) *dependencies {
	return &dependencies{
		publisher: publisher,
		generator: producer.NewGenerator(producer.WithRand(rand.New(rand.NewPCG(3, 4)))),
		metrics:   metrics.New(),
	}
}

func testConfig(count int) commons.Config {
	config := commons.DefaultConfig()
	config.Interval = time.Millisecond
	config.Count = count
	return config
}

func TestRunProducer(t *testing.T) {
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.MatchedBy(func(value []byte) bool {
		record, err := codec.Decode(value)
		return err == nil && record.Validate() == nil
	})).Return(broker.Delivery{Topic: commons.DefaultTopic}, nil)
	publisher.On("Flush", mock.Anything).Return(nil)
	publisher.On("Close").Return()

	result, err := runProducer(context.Background(), testConfig(3), testDependencies(publisher))

	require.NoError(t, err)
	assert.Equal(t, producer.RunResult{Published: 3}, result)
	publisher.AssertNumberOfCalls(t, "Publish", 3)
	publisher.AssertCalled(t, "Close")
}

func TestRunProducer_KeysByService(t *testing.T) {
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			record, err := codec.Decode(args.Get(2).([]byte))
			require.NoError(t, err)
			assert.Equal(t, record.Service, string(args.Get(1).([]byte)))
		}).
		Return(broker.Delivery{}, nil)
	publisher.On("Flush", mock.Anything).Return(nil)
	publisher.On("Close").Return()

	_, err := runProducer(context.Background(), testConfig(10), testDependencies(publisher))

	require.NoError(t, err)
	publisher.AssertNumberOfCalls(t, "Publish", 10)
}

func TestRunProducer_FlushError(t *testing.T) {
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(broker.Delivery{}, nil)
	publisher.On("Flush", mock.Anything).Return(errors.New("flush timed out"))
	publisher.On("Close").Return()

	result, err := runProducer(context.Background(), testConfig(1), testDependencies(publisher))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to flush publisher")
	assert.Equal(t, 1, result.Published)
}

func TestRunProducer_Interrupted(t *testing.T) {
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(broker.Delivery{}, nil)
	publisher.On("Flush", mock.Anything).Return(nil)
	publisher.On("Close").Return()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	config := testConfig(0)
	config.Interval = 5 * time.Millisecond
	result, err := runProducer(ctx, config, testDependencies(publisher))

	require.NoError(t, err)
	assert.Positive(t, result.Published)
	publisher.AssertCalled(t, "Close")
}

func TestNewRootCmd_ConfigError(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--bootstrap-servers", "kafka", "--count", "-1"})

	err := cmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "configuration errors occurred")
}
