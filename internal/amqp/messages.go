package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage announces a committed change. It carries no ledger
// data; consumers reload the store.
type LedgerChangedMessage struct {
	Revision  int64     `json:"revision"`
	Keys      []string  `json:"keys"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message stamped with the current time.
func NewLedgerChangedMessage(revision int64, keys []string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Revision:  revision,
		Keys:      keys,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
