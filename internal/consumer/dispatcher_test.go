package consumer

import (
	"fmt"
	"io"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lutefd/log-pipeline/internal/metrics"
	"github.com/Lutefd/log-pipeline/internal/model"
	"github.com/Lutefd/log-pipeline/internal/producer"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	alerts []model.Alert
}

func (s *recordingSink) Emit(alert model.Alert) {
	s.alerts = append(s.alerts, alert)
}

func (s *recordingSink) kinds() []model.AlertKind {
	kinds := make([]model.AlertKind, 0, len(s.alerts))
	for _, a := range s.alerts {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(body)
}

func newTestDispatcher() (*Dispatcher, *recordingSink, *metrics.Metrics) {
	sink := &recordingSink{}
	m := metrics.New()
	return NewDispatcher(sink, m), sink, m
}

func TestDispatcher_ErrorWithTimeout(t *testing.T) {
	d, sink, _ := newTestDispatcher()
	stats := NewStats()

	alerts := d.Process(stats, model.LogRecord{
		Timestamp: "2026-10-18T09:30:00Z",
		Service:   "api-gateway",
		Level:     model.LogLevelError,
		Message:   "Connection timeout after 30s",
	})

	assert.Equal(t, []model.AlertKind{model.AlertCriticalError, model.AlertTimeoutHint}, sink.kinds())
	assert.Equal(t, sink.alerts, alerts)
	assert.Contains(t, alerts[0].Message, "Connection timeout after 30s")
	assert.Equal(t, model.LogLevelError, alerts[0].Level)
	assert.Equal(t, "2026-10-18T09:30:00Z", alerts[0].RecordTimestamp)
	assert.Equal(t, 1, stats.Alerts[model.AlertCriticalError])
	assert.Equal(t, 1, stats.Alerts[model.AlertTimeoutHint])
}

func TestDispatcher_ErrorWithFailure(t *testing.T) {
	d, sink, _ := newTestDispatcher()

	d.Process(NewStats(), model.LogRecord{Service: "order-service", Level: model.LogLevelError, Message: "Database query failed: deadlock detected"})

	assert.Equal(t, []model.AlertKind{model.AlertCriticalError, model.AlertFailureHint}, sink.kinds())
}

func TestDispatcher_WarningLoginAttempt(t *testing.T) {
	d, sink, _ := newTestDispatcher()

	d.Process(NewStats(), model.LogRecord{Service: "auth-service", Level: model.LogLevelWarn, Message: "Suspicious login attempt for user user_4"})

	require.Equal(t, []model.AlertKind{model.AlertSecurityHint}, sink.kinds())
	assert.Contains(t, sink.alerts[0].Message, "user_4")
}

func TestDispatcher_StockAlertScenario(t *testing.T) {
	d, sink, _ := newTestDispatcher()
	stats := NewStats()

	d.Process(stats, model.LogRecord{
		Service:      "inventory-service",
		Level:        model.LogLevelWarn,
		Message:      "stock alert for item_7",
		CurrentStock: model.Int(2),
	})

	assert.Equal(t, []model.AlertKind{model.AlertInventoryHint, model.AlertLowStock}, sink.kinds())
	lowStock := sink.alerts[1]
	assert.Equal(t, model.LogLevelWarn, lowStock.Level)
	assert.Contains(t, lowStock.Message, "item_7")
	assert.Contains(t, lowStock.Message, "2")
	assert.Equal(t, 1, stats.Alerts[model.AlertLowStock])
}

func TestDispatcher_SystemTaggedStockAlert(t *testing.T) {
	d, sink, _ := newTestDispatcher()
	stats := NewStats()

	d.Process(stats, model.LogRecord{
		Service:      "inventory-service",
		Level:        model.LogLevelWarn,
		Message:      "stock alert for item_7",
		Category:     model.CategorySystem,
		CurrentStock: model.Int(2),
	})

	assert.Equal(t, []model.AlertKind{model.AlertInventoryHint, model.AlertLowStock}, sink.kinds())
	assert.Equal(t, 1, stats.Alerts[model.AlertLowStock])
}

func TestDispatcher_InfoStockAlertOnlyRunsInventoryHandler(t *testing.T) {
	d, sink, _ := newTestDispatcher()

	d.Process(NewStats(), model.LogRecord{
		Service:      "inventory-service",
		Level:        model.LogLevelInfo,
		Message:      "Stock Alert cleared for item_3",
		ItemID:       "item_3",
		CurrentStock: model.Int(8),
	})

	assert.Equal(t, []model.AlertKind{model.AlertLowStock}, sink.kinds())
}

func TestDispatcher_Payment(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		kinds  []model.AlertKind
	}{
		{name: "Small payment", amount: 120.5, kinds: []model.AlertKind{model.AlertPaymentInfo}},
		{name: "Exactly at threshold", amount: 500, kinds: []model.AlertKind{model.AlertPaymentInfo}},
		{name: "Large payment", amount: 500.01, kinds: []model.AlertKind{model.AlertPaymentInfo, model.AlertLargePayment}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, sink, _ := newTestDispatcher()

			d.Process(NewStats(), model.LogRecord{
				Service:       model.PaymentService,
				Level:         model.LogLevelInfo,
				Message:       "Payment processed for user user_1",
				Category:      model.CategoryPayment,
				UserID:        "user_1",
				Amount:        model.Float64(tt.amount),
				TransactionID: "txn_00000001",
			})

			assert.Equal(t, tt.kinds, sink.kinds())
			assert.Contains(t, sink.alerts[0].Message, "txn_00000001")
		})
	}
}

func TestDispatcher_InfoRecordWithoutHandlers(t *testing.T) {
	d, sink, m := newTestDispatcher()
	stats := NewStats()

	alerts := d.Process(stats, model.LogRecord{Service: "user-service", Level: model.LogLevelInfo, Message: "User user_1 logged in successfully"})

	assert.Empty(t, alerts)
	assert.Empty(t, sink.alerts)
	assert.Equal(t, 1, stats.Total)
	count, err := testutil.GatherAndCount(m.Registry, "log_pipeline_consumer_records_processed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDispatcher_RedeliveryCountsTwice(t *testing.T) {
	d, sink, _ := newTestDispatcher()
	stats := NewStats()
	record := model.LogRecord{
		Service:       model.PaymentService,
		Level:         model.LogLevelInfo,
		Message:       "Payment processed for user user_2",
		Category:      model.CategoryPayment,
		Amount:        model.Float64(900),
		TransactionID: "txn_2",
	}

	d.Process(stats, record)
	first := stats.Snapshot()
	d.Process(stats, record)
	second := stats.Snapshot()

	assert.Equal(t, first.Total+1, second.Total)
	assert.Equal(t, first.ByService[model.PaymentService]+1, second.ByService[model.PaymentService])
	assert.Equal(t, first.ByLevel[model.LogLevelInfo]+1, second.ByLevel[model.LogLevelInfo])
	assert.Equal(t, first.Alerts[model.AlertLargePayment]+1, second.Alerts[model.AlertLargePayment])
	assert.Equal(t, first.Errors, second.Errors)
	assert.Len(t, sink.alerts, 4)
}

func TestDispatcher_HundredPaymentsScenario(t *testing.T) {
	d, _, m := newTestDispatcher()
	stats := NewStats()
	g := producer.NewGenerator(
		producer.WithRand(rand.New(rand.NewPCG(2026, 10))),
		producer.WithClock(func() time.Time { return time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC) }),
	)

	expectedLarge := 0
	for i := 0; i < 100; i++ {
		record := g.GenerateTemplate(producer.TemplatePaymentProcessed)
		require.NotNil(t, record.Amount)
		require.True(t, strings.HasPrefix(record.Message, "Payment processed"))
		if *record.Amount > 500 {
			expectedLarge++
		}
		d.Process(stats, record)
	}

	assert.Equal(t, 100, stats.ByService[model.PaymentService])
	assert.Equal(t, expectedLarge, stats.Alerts[model.AlertLargePayment])
	assert.Equal(t, 100, stats.Alerts[model.AlertPaymentInfo])
	assert.Contains(t, scrape(t, m), fmt.Sprintf(`log_pipeline_consumer_alerts_total{kind="large_payment"} %d`, expectedLarge))
}
