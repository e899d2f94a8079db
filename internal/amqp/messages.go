package amqp

import (
	"encoding/json"
	"time"

	"quarta/internal/core"
)

// Ledger entity names carried in change messages.
const (
	EntityPayment      = "payment"
	EntityCourtExpense = "court_expense"
	EntityExtraExpense = "extra_expense"
	EntityIncome       = "additional_income"
	EntityAttendance   = "attendance"
)

// LedgerChangedMessage tells the export worker that a row affecting the
// monthly summary changed. The worker recomputes from the store, so the
// message carries only the entity, row id, and affected month.
type LedgerChangedMessage struct {
	Entity    string    `json:"entity"`
	ID        int64     `json:"id"`
	Month     string    `json:"month"` // YYYY-MM
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(entity string, id int64, month core.MonthKey) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Entity:    entity,
		ID:        id,
		Month:     month.String(),
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
