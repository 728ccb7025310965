package amqp

import (
	"encoding/json"
	"time"
)

// BetSyncMessage tells the mirror worker that an owner's collection
// changed. It carries only the owner and the triggering record id; the
// worker re-reads the authoritative store before rewriting the mirror.
type BetSyncMessage struct {
	Kind      string    `json:"kind"` // "insert" or "delete"
	BetID     string    `json:"bet_id"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	KindInsert = "insert"
	KindDelete = "delete"
)

func NewBetSyncMessage(kind, betID, owner string) *BetSyncMessage {
	return &BetSyncMessage{
		Kind:      kind,
		BetID:     betID,
		Owner:     owner,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BetSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BetSyncMessageFromJSON creates a message from JSON bytes.
func BetSyncMessageFromJSON(data []byte) (*BetSyncMessage, error) {
	var msg BetSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
