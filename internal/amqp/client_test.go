package amqp

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewExtractionJobMessage(t *testing.T) {
	id := uuid.New()

	msg := NewExtractionJobMessage(id)

	if msg.ID != id {
		t.Errorf("NewExtractionJobMessage() ID = %v, want %v", msg.ID, id)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewExtractionJobMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewExtractionJobMessage() Timestamp should be recent")
	}
}

func TestExtractionJobMessage_JSON(t *testing.T) {
	timestamp := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &ExtractionJobMessage{
		ID:        uuid.New(),
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := ExtractionJobMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ExtractionJobMessageFromJSON() error = %v", err)
	}

	if parsedMsg.ID != msg.ID {
		t.Errorf("Parsed ID = %v, want %v", parsedMsg.ID, msg.ID)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestExtractionJobMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"id": 42}`)

	_, err := ExtractionJobMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("ExtractionJobMessageFromJSON() should fail with invalid JSON")
	}
}
