package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// MessageVersion is bumped when TransactionRecordedMessage changes shape.
const MessageVersion = 1

// TransactionRecordedMessage announces a stored transaction. It carries only
// the identifiers; consumers reload the transaction from the store.
type TransactionRecordedMessage struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

var ErrInvalidMessage = errors.New("invalid transaction message")

// NewTransactionRecordedMessage creates a message stamped with the current time
func NewTransactionRecordedMessage(id, ownerID string) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:        id,
		OwnerID:   ownerID,
		Version:   MessageVersion,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TransactionRecordedMessage) Validate() error {
	if m.ID == "" || m.OwnerID == "" {
		return ErrInvalidMessage
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON decodes and validates a message
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
