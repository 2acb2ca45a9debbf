// Package codec converts LogRecords to and from their JSON wire form.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Lutefd/log-pipeline/internal/model"
	"github.com/valyala/fastjson"
)

// DecodeError reports a payload that could not be turned into a valid record.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode record: %v", e.Err)
	}
	return fmt.Sprintf("decode record field %q: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func Encode(record model.LogRecord) ([]byte, error) {
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

// Decode parses a wire payload. Unknown fields are ignored.
func Decode(data []byte) (model.LogRecord, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return model.LogRecord{}, &DecodeError{Err: err}
	}
	if v.Type() != fastjson.TypeObject {
		return model.LogRecord{}, &DecodeError{Err: fmt.Errorf("payload is %s, not an object", v.Type())}
	}

	d := decoder{v: v}
	record := model.LogRecord{
		Timestamp:     d.str("timestamp"),
		Service:       d.str("service"),
		Level:         model.LogLevel(d.str("level")),
		Message:       d.str("message"),
		Category:      model.Category(d.str("category")),
		UserID:        d.str("user_id"),
		TransactionID: d.str("transaction_id"),
		ItemID:        d.str("item_id"),
		HTTPMethod:    d.str("http_method"),
		Endpoint:      d.str("endpoint"),
		Host:          d.str("host"),
		Environment:   d.str("environment"),
		RequestID:     d.str("request_id"),
	}
	record.Amount = d.float("amount")
	record.CurrentStock = d.int("current_stock")
	record.ResponseTimeMs = d.int("response_time_ms")
	record.StatusCode = d.int("status_code")

	if d.err != nil {
		return model.LogRecord{}, d.err
	}
	if err := record.Validate(); err != nil {
		return model.LogRecord{}, &DecodeError{Err: err}
	}
	return record, nil
}

// decoder keeps the first field error so extraction reads as a flat list.
type decoder struct {
	v   *fastjson.Value
	err error
}

func (d *decoder) field(key string, want fastjson.Type) *fastjson.Value {
	if d.err != nil {
		return nil
	}
	f := d.v.Get(key)
	if f == nil || f.Type() == fastjson.TypeNull {
		return nil
	}
	if f.Type() != want {
		d.err = &DecodeError{Field: key, Err: fmt.Errorf("expected %s, got %s", want, f.Type())}
		return nil
	}
	return f
}

func (d *decoder) str(key string) string {
	f := d.field(key, fastjson.TypeString)
	if f == nil {
		return ""
	}
	b, err := f.StringBytes()
	if err != nil {
		d.err = &DecodeError{Field: key, Err: err}
		return ""
	}
	return string(b)
}

func (d *decoder) float(key string) *float64 {
	f := d.field(key, fastjson.TypeNumber)
	if f == nil {
		return nil
	}
	// strconv keeps the decoded value bit-identical to what encoding/json wrote.
	n, err := strconv.ParseFloat(string(f.MarshalTo(nil)), 64)
	if err != nil {
		d.err = &DecodeError{Field: key, Err: err}
		return nil
	}
	return &n
}

func (d *decoder) int(key string) *int {
	f := d.field(key, fastjson.TypeNumber)
	if f == nil {
		return nil
	}
	n, err := f.Int()
	if err != nil {
		d.err = &DecodeError{Field: key, Err: err}
		return nil
	}
	return &n
}
