package model

import (
	"regexp"
	"strings"
)

const PaymentService = "payment-service"

var itemIDPattern = regexp.MustCompile(`item_\d+`)

type Envelope struct {
	Timestamp string
	Service   string
	Level     LogLevel
	Message   string
}

// Event is the classified view of a LogRecord: one of PaymentEvent,
// InventoryEvent or GenericEvent.
type Event interface {
	Envelope() Envelope
	isEvent()
}

type PaymentEvent struct {
	Env           Envelope
	UserID        string
	Amount        float64
	TransactionID string
}

type InventoryEvent struct {
	Env          Envelope
	ItemID       string
	CurrentStock int
}

type GenericEvent struct {
	Env    Envelope
	Record LogRecord
}

func (e PaymentEvent) Envelope() Envelope   { return e.Env }
func (e InventoryEvent) Envelope() Envelope { return e.Env }
func (e GenericEvent) Envelope() Envelope   { return e.Env }

func (PaymentEvent) isEvent()   {}
func (InventoryEvent) isEvent() {}
func (GenericEvent) isEvent()   {}

// Event discriminates the record on its category tag. A tagged record only
// becomes a typed event when it carries the payload for that category;
// inventory events recover a missing item id from the message.
// Untagged records fall back to matching the message text, which is how
// older producers routed payments and stock alerts. A stock alert message is
// an inventory event under any tag other than payment.
func (r LogRecord) Event() Event {
	env := Envelope{
		Timestamp: r.Timestamp,
		Service:   r.Service,
		Level:     r.Level,
		Message:   r.Message,
	}

	category := r.Category
	switch {
	case category == "":
		category = legacyCategory(r)
	case category != CategoryPayment && IsStockAlert(r.Message):
		category = CategoryInventory
	}

	switch {
	case category == CategoryPayment && r.Amount != nil:
		return PaymentEvent{Env: env, UserID: r.UserID, Amount: *r.Amount, TransactionID: r.TransactionID}
	case category == CategoryInventory:
		ev := InventoryEvent{Env: env, ItemID: r.ItemID}
		if ev.ItemID == "" {
			ev.ItemID = itemIDPattern.FindString(r.Message)
		}
		if r.CurrentStock != nil {
			ev.CurrentStock = *r.CurrentStock
		}
		return ev
	}
	return GenericEvent{Env: env, Record: r}
}

func legacyCategory(r LogRecord) Category {
	switch {
	case r.Service == PaymentService && strings.Contains(r.Message, "Payment processed"):
		return CategoryPayment
	case IsStockAlert(r.Message):
		return CategoryInventory
	}
	return ""
}

func IsStockAlert(message string) bool {
	return strings.Contains(strings.ToLower(message), "stock alert")
}
