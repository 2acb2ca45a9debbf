package model

import (
	"time"

	"github.com/google/uuid"
)

type AlertKind string

const (
	AlertCriticalError AlertKind = "critical_error"
	AlertTimeoutHint   AlertKind = "timeout_hint"
	AlertFailureHint   AlertKind = "failure_hint"
	AlertSecurityHint  AlertKind = "security_hint"
	AlertInventoryHint AlertKind = "inventory_hint"
	AlertPaymentInfo   AlertKind = "payment_info"
	AlertLargePayment  AlertKind = "large_payment"
	AlertLowStock      AlertKind = "low_stock"
)

// Alert is a side effect emitted by a consumer handler for one record.
type Alert struct {
	ID              uuid.UUID `json:"id"`
	Kind            AlertKind `json:"kind"`
	Level           LogLevel  `json:"level"`
	Service         string    `json:"service"`
	Message         string    `json:"message"`
	RecordTimestamp string    `json:"record_timestamp"`
	CreatedAt       time.Time `json:"created_at"`
}
