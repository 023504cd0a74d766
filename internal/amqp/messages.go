package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action is the change a sync message announces.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

func (a Action) Valid() bool {
	return a == ActionUpsert || a == ActionDelete
}

// EntrySyncMessage announces that a revenue entry changed.
// It only carries the id; the worker reloads the entry from storage.
type EntrySyncMessage struct {
	EntryID   string    `json:"entryId"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntrySyncMessage(entryID string, action Action) *EntrySyncMessage {
	return &EntrySyncMessage{
		EntryID:   entryID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntrySyncMessageFromJSON decodes and checks a message body.
func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EntryID == "" {
		return nil, fmt.Errorf("sync message without entry id")
	}
	if !msg.Action.Valid() {
		return nil, fmt.Errorf("sync message with unknown action %q", msg.Action)
	}
	return &msg, nil
}
