package amqp

import (
	"encoding/json"
	"time"

	"budgetwatch/internal/core"
)

// AlertMessage is the wire form of a budget alert. Amounts are in cents and
// PercentUsed is a display string such as "85.0".
type AlertMessage struct {
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Severity     string    `json:"severity"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	PercentUsed  string    `json:"percent_used"`
	SpentCents   int64     `json:"spent_cents"`
	LimitCents   int64     `json:"limit_cents"`
	DeltaCents   int64     `json:"delta_cents"`
	GeneratedAt  time.Time `json:"generated_at"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewAlertMessage converts an alert event for publishing.
func NewAlertMessage(e core.AlertEvent) *AlertMessage {
	return &AlertMessage{
		CategoryID:   e.Category.ID,
		CategoryName: e.Category.Name,
		Severity:     e.Severity.String(),
		Title:        e.Title,
		Message:      e.Message,
		PercentUsed:  e.Percent().StringFixed(1),
		SpentCents:   e.Spent.Cents,
		LimitCents:   e.Limit.Cents,
		DeltaCents:   e.Delta.Cents,
		GeneratedAt:  e.GeneratedAt,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertMessageFromJSON decodes a message published by PublishAlert.
func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
