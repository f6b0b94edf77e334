package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	RecordCreated EventType = "record.created"
	RecordUpdated EventType = "record.updated"
	RecordDeleted EventType = "record.deleted"
)

// RecordEvent announces a record mutation. It carries identifiers only;
// consumers load the current record from the database.
type RecordEvent struct {
	Event     EventType `json:"event"`
	RecordID  int64     `json:"record_id"`
	UserID    int64     `json:"user_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(event EventType, recordID, userID, version int64) *RecordEvent {
	return &RecordEvent{
		Event:     event,
		RecordID:  recordID,
		UserID:    userID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordEventFromJSON decodes and checks an event body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var msg RecordEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Event {
	case RecordCreated, RecordUpdated, RecordDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Event)
	}
	if msg.RecordID <= 0 {
		return nil, fmt.Errorf("invalid record id %d", msg.RecordID)
	}
	return &msg, nil
}
