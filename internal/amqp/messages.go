package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event types published whenever a transaction changes.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
)

// LedgerEventMessage tells the report worker which (owner, year, month)
// bucket went stale. The worker re-reads the ledger itself, so the
// message stays small.
type LedgerEventMessage struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(eventType string, id, ownerID int64, year, month int) *LedgerEventMessage {
	return &LedgerEventMessage{
		Type:      eventType,
		ID:        id,
		OwnerID:   ownerID,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
