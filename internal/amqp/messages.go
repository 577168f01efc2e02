package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ActivityKind names the write that produced an activity message.
type ActivityKind string

const (
	TransactionCreated ActivityKind = "transaction.created"
	TransactionUpdated ActivityKind = "transaction.updated"
	TransactionDeleted ActivityKind = "transaction.deleted"
	GoalCreated        ActivityKind = "goal.created"
	GoalAchieved       ActivityKind = "goal.achieved"
	GoalDeleted        ActivityKind = "goal.deleted"
)

func (k ActivityKind) Valid() bool {
	switch k {
	case TransactionCreated, TransactionUpdated, TransactionDeleted,
		GoalCreated, GoalAchieved, GoalDeleted:
		return true
	}
	return false
}

// IsTransaction reports whether the message refers to a transaction record.
func (k ActivityKind) IsTransaction() bool {
	return k == TransactionCreated || k == TransactionUpdated || k == TransactionDeleted
}

// ActivityMessage tells the worker that an owner's records changed. It only
// carries identifiers; the worker reloads the records from the store.
type ActivityMessage struct {
	OwnerID   string       `json:"owner_id"`
	Kind      ActivityKind `json:"kind"`
	RecordID  string       `json:"record_id"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewActivityMessage(ownerID string, kind ActivityKind, recordID string) *ActivityMessage {
	return &ActivityMessage{
		OwnerID:   ownerID,
		Kind:      kind,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

func (m *ActivityMessage) Validate() error {
	if m.OwnerID == "" {
		return errors.New("missing owner_id")
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", m.Kind)
	}
	return nil
}

func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON decodes and validates a message body.
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid activity message: %w", err)
	}
	return &msg, nil
}
