package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"nexu/internal/core"
	"nexu/internal/ledger"
)

// LedgerChangeMessage announces a committed ledger write. It carries only
// identifiers; consumers read current state from the shared database.
type LedgerChangeMessage struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Operation string    `json:"operation"`
	Year      int       `json:"year,omitempty"`
	Month     int       `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangeMessage(c ledger.Change) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		Kind:      string(c.Kind),
		ID:        c.ID,
		Operation: string(c.Operation),
		Year:      c.Period.Year,
		Month:     c.Period.Month,
		Timestamp: time.Now(),
	}
}

// Period returns the month affected by the change, if any.
func (m *LedgerChangeMessage) Period() (core.Period, bool) {
	p, err := core.NewPeriod(m.Year, m.Month)
	if err != nil {
		return core.Period{}, false
	}
	return p, true
}

func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes and sanity-checks a message body.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" || msg.Operation == "" {
		return nil, fmt.Errorf("incomplete ledger change message")
	}
	return &msg, nil
}
