package domain

import (
	"encoding/json"
	"time"
)

// ChangeType mirrors the database operation that produced a change event
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// ChangeEvent is the wire payload delivered to the automation dispatcher.
// Shape: {type, table, schema, record, old_record?}. Delivery is at-least-once
// and unordered; consumers must be idempotent.
type ChangeEvent struct {
	Type      ChangeType      `json:"type"`
	Table     string          `json:"table"`
	Schema    string          `json:"schema"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

// NewChangeEvent marshals records into a ChangeEvent. old may be nil.
func NewChangeEvent(changeType ChangeType, table string, record, old interface{}) (*ChangeEvent, error) {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	ev := &ChangeEvent{
		Type:   changeType,
		Table:  table,
		Schema: "public",
		Record: recordJSON,
	}

	if old != nil {
		oldJSON, err := json.Marshal(old)
		if err != nil {
			return nil, err
		}
		ev.OldRecord = oldJSON
	}

	return ev, nil
}

// OutboxEvent is a persisted, pending change event awaiting delivery.
type OutboxEvent struct {
	ID            int64           `json:"id"`
	AccountID     string          `json:"accountId"`
	Payload       json.RawMessage `json:"payload"`
	Attempts      int             `json:"attempts"`
	NextAttemptAt time.Time       `json:"nextAttemptAt"`
	DeliveredAt   *time.Time      `json:"deliveredAt,omitempty"`
	LastError     *string         `json:"lastError,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
