package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"despesas/internal/core"

	"github.com/google/uuid"
)

// RecordChangeMessage announces a committed ledger mutation. It carries the
// affected ids only; consumers reload the records they care about.
type RecordChangeMessage struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	RecordIDs []int64   `json:"record_ids"`
	UserID    *int64    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordChangeMessage stamps change with a fresh message id and the
// current time.
func NewRecordChangeMessage(change core.RecordChange) *RecordChangeMessage {
	ids := make([]int64, len(change.RecordIDs))
	copy(ids, change.RecordIDs)
	return &RecordChangeMessage{
		ID:        uuid.NewString(),
		Operation: string(change.Operation),
		RecordIDs: ids,
		UserID:    change.UserID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeMessageFromJSON decodes a message and checks its id.
func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, fmt.Errorf("invalid message id %q: %w", msg.ID, err)
	}
	return &msg, nil
}
