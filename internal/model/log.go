package model

import (
	"errors"
	"fmt"
)

type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

var LogLevels = []LogLevel{LogLevelInfo, LogLevelWarn, LogLevelError}

func (l LogLevel) Valid() bool {
	switch l {
	case LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

func ParseLogLevel(s string) (LogLevel, error) {
	level := LogLevel(s)
	if !level.Valid() {
		return "", fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

type Category string

const (
	CategoryPayment   Category = "payment"
	CategoryInventory Category = "inventory"
	CategoryAuth      Category = "auth"
	CategoryHTTP      Category = "http"
	CategorySystem    Category = "system"
)

// LogRecord is the unit exchanged over the topic. Optional numeric fields are
// pointers so an absent field survives a round trip as absent.
type LogRecord struct {
	Timestamp      string   `json:"timestamp"`
	Service        string   `json:"service"`
	Level          LogLevel `json:"level"`
	Message        string   `json:"message"`
	Category       Category `json:"category,omitempty"`
	UserID         string   `json:"user_id,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	TransactionID  string   `json:"transaction_id,omitempty"`
	ItemID         string   `json:"item_id,omitempty"`
	CurrentStock   *int     `json:"current_stock,omitempty"`
	HTTPMethod     string   `json:"http_method,omitempty"`
	Endpoint       string   `json:"endpoint,omitempty"`
	ResponseTimeMs *int     `json:"response_time_ms,omitempty"`
	StatusCode     *int     `json:"status_code,omitempty"`
	Host           string   `json:"host,omitempty"`
	Environment    string   `json:"environment,omitempty"`
	RequestID      string   `json:"request_id,omitempty"`
}

var (
	ErrMissingService = errors.New("record has no service")
	ErrInvalidLevel   = errors.New("record has an invalid level")
	ErrNegativeField  = errors.New("record has a negative numeric field")
)

func (r LogRecord) Validate() error {
	if r.Service == "" {
		return ErrMissingService
	}
	if !r.Level.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, r.Level)
	}
	if r.Amount != nil && *r.Amount < 0 {
		return fmt.Errorf("%w: amount", ErrNegativeField)
	}
	if r.CurrentStock != nil && *r.CurrentStock < 0 {
		return fmt.Errorf("%w: current_stock", ErrNegativeField)
	}
	if r.ResponseTimeMs != nil && *r.ResponseTimeMs < 0 {
		return fmt.Errorf("%w: response_time_ms", ErrNegativeField)
	}
	return nil
}

func Float64(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
