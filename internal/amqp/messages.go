package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names the ledger mutation an event reports.
type EventKind string

const (
	CategoryCreated EventKind = "category.created"
	CategoryRenamed EventKind = "category.renamed"
	CategoryDeleted EventKind = "category.deleted"

	FixedExpenseCreated EventKind = "fixed_expense.created"
	FixedExpenseUpdated EventKind = "fixed_expense.updated"
	FixedExpenseDeleted EventKind = "fixed_expense.deleted"

	GeneralExpenseCreated EventKind = "general_expense.created"
	GeneralExpenseUpdated EventKind = "general_expense.updated"
	GeneralExpenseDeleted EventKind = "general_expense.deleted"

	SalaryCreated EventKind = "salary.created"
	SalaryUpdated EventKind = "salary.updated"
	SalaryDeleted EventKind = "salary.deleted"
)

// LedgerEvent is a lightweight change notification. It carries only the
// owner and entity id; consumers reload the ledger from storage.
type LedgerEvent struct {
	Owner     string    `json:"owner"`
	Kind      EventKind `json:"kind"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(owner string, kind EventKind, entityID string) *LedgerEvent {
	return &LedgerEvent{
		Owner:     owner,
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event and rejects one without an owner.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Owner == "" {
		return nil, fmt.Errorf("ledger event without owner")
	}
	return &msg, nil
}
