package amqp

import (
	"testing"
	"time"

	"quarta/internal/core"
)

func TestLedgerChangedMessageRoundTrip(t *testing.T) {
	msg := NewLedgerChangedMessage(EntityPayment, 42, core.MonthKey{Year: 2024, Month: time.March})
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := LedgerChangedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Entity != EntityPayment || got.ID != 42 || got.Month != "2024-03" {
		t.Errorf("round trip = %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestLedgerChangedMessageFromJSONInvalid(t *testing.T) {
	if _, err := LedgerChangedMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
