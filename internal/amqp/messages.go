package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EMICreated    EventType = "emi.created"
	EMIUpdated    EventType = "emi.updated"
	EMIDeleted    EventType = "emi.deleted"
	IncomeUpdated EventType = "income.updated"
)

func (t EventType) IsValid() bool {
	switch t {
	case EMICreated, EMIUpdated, EMIDeleted, IncomeUpdated:
		return true
	}
	return false
}

// Event announces a change to stored data. It carries only identifiers; the
// consumer reads current state from the store.
type Event struct {
	Type      EventType `json:"type"`
	ID        int64     `json:"id,omitempty"`
	Instance  string    `json:"instance,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEMIEvent(t EventType, id int64) *Event {
	return &Event{Type: t, ID: id, Timestamp: time.Now().UTC()}
}

func NewIncomeEvent(instance string) *Event {
	return &Event{Type: IncomeUpdated, Instance: instance, Timestamp: time.Now().UTC()}
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and rejects unknown types.
func EventFromJSON(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return &ev, nil
}
