package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// TransactionSyncMessage announces a stored transaction to the sheet mirror.
// It carries only the ID; the worker loads the full record from the store.
type TransactionSyncMessage struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id, owner string) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		Owner:     owner,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSyncMessageFromJSON decodes a message, rejecting one without an ID.
func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("sync message without id")
	}
	return &msg, nil
}
