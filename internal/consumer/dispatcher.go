package consumer

import (
	"fmt"
	"strings"
	"time"

	"github.com/Lutefd/log-pipeline/internal/commons"
	"github.com/Lutefd/log-pipeline/internal/logger"
	"github.com/Lutefd/log-pipeline/internal/metrics"
	"github.com/Lutefd/log-pipeline/internal/model"
	"github.com/google/uuid"
)

type AlertSink interface {
	Emit(alert model.Alert)
}

type SinkFunc func(alert model.Alert)

func (f SinkFunc) Emit(alert model.Alert) { f(alert) }

// LoggerSink prints alerts and, once the logger has a repository, persists
// them.
var LoggerSink = SinkFunc(logger.Emit)

type Dispatcher struct {
	sink                  AlertSink
	metrics               *metrics.Metrics
	largePaymentThreshold float64
	now                   func() time.Time
	newID                 func() uuid.UUID
}

func NewDispatcher(sink AlertSink, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		sink:                  sink,
		metrics:               m,
		largePaymentThreshold: commons.LargePaymentThreshold,
		now:                   time.Now,
		newID:                 uuid.New,
	}
}

// Process counts record into stats and runs the handlers that apply to it.
// The level handlers are exclusive; the payment and inventory handlers run in
// addition to them. It returns the alerts emitted, in order.
func (d *Dispatcher) Process(stats *Stats, record model.LogRecord) []model.Alert {
	stats.Record(record)
	d.metrics.Consumed(record.Service, record.Level)

	event := record.Event()
	var alerts []model.Alert

	switch record.Level {
	case model.LogLevelError:
		alerts = append(alerts, d.handleError(record)...)
	case model.LogLevelWarn:
		alerts = append(alerts, d.handleWarning(record, event)...)
	}

	switch ev := event.(type) {
	case model.PaymentEvent:
		alerts = append(alerts, d.handlePayment(ev)...)
	case model.InventoryEvent:
		alerts = append(alerts, d.handleInventory(ev))
	}

	for _, alert := range alerts {
		stats.RecordAlert(alert.Kind)
		d.metrics.Alert(alert.Kind)
		d.sink.Emit(alert)
	}
	return alerts
}

func (d *Dispatcher) handleError(record model.LogRecord) []model.Alert {
	alerts := []model.Alert{
		d.alert(model.AlertCriticalError, model.LogLevelError, record.Service, record.Timestamp,
			fmt.Sprintf("CRITICAL ERROR in %s: %s", record.Service, record.Message)),
	}

	message := strings.ToLower(record.Message)
	if strings.Contains(message, "timeout") {
		alerts = append(alerts, d.alert(model.AlertTimeoutHint, model.LogLevelError, record.Service, record.Timestamp,
			"timeout detected: check network latency and downstream service health"))
	}
	if strings.Contains(message, "failed") {
		alerts = append(alerts, d.alert(model.AlertFailureHint, model.LogLevelError, record.Service, record.Timestamp,
			"operation failed: check dependent systems and retry policy"))
	}
	return alerts
}

func (d *Dispatcher) handleWarning(record model.LogRecord, event model.Event) []model.Alert {
	var alerts []model.Alert
	message := strings.ToLower(record.Message)

	if strings.Contains(message, "login attempt") {
		alerts = append(alerts, d.alert(model.AlertSecurityHint, model.LogLevelWarn, record.Service, record.Timestamp,
			fmt.Sprintf("security alert: %s", record.Message)))
	}
	if model.IsStockAlert(record.Message) {
		itemID, stock := record.ItemID, record.CurrentStock
		if ev, ok := event.(model.InventoryEvent); ok {
			itemID, stock = ev.ItemID, &ev.CurrentStock
		}
		alerts = append(alerts, d.alert(model.AlertInventoryHint, model.LogLevelWarn, record.Service, record.Timestamp,
			fmt.Sprintf("inventory warning: %s has %s units in stock", orUnknown(itemID), formatStock(stock))))
	}
	return alerts
}

func (d *Dispatcher) handlePayment(ev model.PaymentEvent) []model.Alert {
	env := ev.Envelope()
	alerts := []model.Alert{
		d.alert(model.AlertPaymentInfo, model.LogLevelInfo, env.Service, env.Timestamp,
			fmt.Sprintf("payment of $%.2f processed for %s (transaction %s)", ev.Amount, orUnknown(ev.UserID), orUnknown(ev.TransactionID))),
	}
	if ev.Amount > d.largePaymentThreshold {
		alerts = append(alerts, d.alert(model.AlertLargePayment, model.LogLevelWarn, env.Service, env.Timestamp,
			fmt.Sprintf("large payment detected: $%.2f (transaction %s)", ev.Amount, orUnknown(ev.TransactionID))))
	}
	return alerts
}

func (d *Dispatcher) handleInventory(ev model.InventoryEvent) model.Alert {
	env := ev.Envelope()
	return d.alert(model.AlertLowStock, model.LogLevelWarn, env.Service, env.Timestamp,
		fmt.Sprintf("low stock: %s has %d units remaining", orUnknown(ev.ItemID), ev.CurrentStock))
}

func (d *Dispatcher) alert(kind model.AlertKind, level model.LogLevel, service, recordTimestamp, message string) model.Alert {
	return model.Alert{
		ID:              d.newID(),
		Kind:            kind,
		Level:           level,
		Service:         service,
		Message:         message,
		RecordTimestamp: recordTimestamp,
		CreatedAt:       d.now().UTC(),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func formatStock(stock *int) string {
	if stock == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *stock)
}
