package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractionJobMessage tells the worker an uploaded timesheet is ready
// for text extraction. It carries only the job ID; the worker re-reads
// the row, so a stale or duplicate delivery is harmless.
type ExtractionJobMessage struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExtractionJobMessage creates a message for the given job ID
func NewExtractionJobMessage(id uuid.UUID) *ExtractionJobMessage {
	return &ExtractionJobMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExtractionJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExtractionJobMessageFromJSON creates a message from JSON bytes
func ExtractionJobMessageFromJSON(data []byte) (*ExtractionJobMessage, error) {
	var msg ExtractionJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
