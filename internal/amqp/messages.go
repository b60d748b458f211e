package amqp

import (
	"encoding/json"
	"time"
)

// EventType names a change to the ledger.
type EventType string

const (
	EventTransactionAdded     EventType = "transaction.added"
	EventTransactionDeleted   EventType = "transaction.deleted"
	EventTransactionsImported EventType = "transactions.imported"
	EventBudgetSet            EventType = "budget.set"
	EventLedgerExported       EventType = "ledger.exported"
)

// LedgerEvent is a lightweight notification. It carries counts and the
// touched category, never the full transaction list.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	Count     int       `json:"count,omitempty"`
	Category  string    `json:"category,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time
func NewLedgerEvent(t EventType) LedgerEvent {
	return LedgerEvent{Type: t, Timestamp: time.Now().UTC()}
}

// RoutingKey appends the event type to prefix, e.g. "ledger.events.budget.set".
func (e LedgerEvent) RoutingKey(prefix string) string {
	if prefix == "" {
		return string(e.Type)
	}
	return prefix + "." + string(e.Type)
}

// ToJSON converts the event to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event; unknown types are kept verbatim.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	return e, nil
}
