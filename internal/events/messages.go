package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names a ledger event on the wire.
type Type string

const (
	TypeTransactionSubmitted Type = "transaction.submitted"
	TypeTransactionApproved  Type = "transaction.approved"
	TypeTransactionRejected  Type = "transaction.rejected"
	TypeSettlementCreated    Type = "settlement.created"
	TypeCashCountRecorded    Type = "cashcount.recorded"
)

// Event is a lightweight notification. Consumers fetch full records by ID.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      Type              `json:"type"`
	EntityID  uuid.UUID         `json:"entity_id"`
	ActorID   uuid.UUID         `json:"actor_id"`
	Amount    string            `json:"amount,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// New creates an event stamped with a fresh ID and the current time.
func New(eventType Type, entityID, actorID uuid.UUID) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		EntityID:  entityID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	}
}

// WithAmount returns a copy carrying a fixed two-decimal amount.
func (e Event) WithAmount(amount string) Event {
	e.Amount = amount
	return e
}

// WithAttr returns a copy with one extra attribute.
func (e Event) WithAttr(key, value string) Event {
	attrs := make(map[string]string, len(e.Attrs)+1)
	for k, v := range e.Attrs {
		attrs[k] = v
	}
	attrs[key] = value
	e.Attrs = attrs
	return e
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event
func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
