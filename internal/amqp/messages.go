package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EntityKind names the ledger collection an event refers to.
type EntityKind string

const (
	KindIncome   EntityKind = "income"
	KindExpense  EntityKind = "expense"
	KindCategory EntityKind = "category"
	KindSettings EntityKind = "settings"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// LedgerEvent announces a change to an owner's ledger. Consumers reload
// whatever they need from the store; the event carries no record data.
type LedgerEvent struct {
	OwnerID   string     `json:"owner_id"`
	Kind      EntityKind `json:"kind"`
	Action    Action     `json:"action"`
	EntityID  string     `json:"entity_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewLedgerEvent(ownerID string, kind EntityKind, action Action, entityID string) LedgerEvent {
	return LedgerEvent{
		OwnerID:   ownerID,
		Kind:      kind,
		Action:    action,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and checks an event body.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	if e.OwnerID == "" {
		return LedgerEvent{}, errors.New("ledger event without owner_id")
	}
	switch e.Kind {
	case KindIncome, KindExpense, KindCategory, KindSettings:
	default:
		return LedgerEvent{}, fmt.Errorf("unknown ledger event kind %q", e.Kind)
	}
	return e, nil
}
