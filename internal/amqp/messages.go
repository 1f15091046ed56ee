package amqp

import (
	"encoding/json"
	"time"

	"finanzas/internal/core"
)

// AlertTriggeredMessage is published when a budget alert crosses its
// threshold. It carries the full snapshot so consumers do not need to
// re-query the store.
type AlertTriggeredMessage struct {
	AlertID       int64     `json:"alertId"`
	Type          string    `json:"type"`
	Category      string    `json:"category,omitempty"`
	LimitAmount   float64   `json:"limitAmount"`
	CurrentAmount float64   `json:"currentAmount"`
	Percentage    int       `json:"percentage"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewAlertTriggeredMessage builds a message from an alert evaluation
func NewAlertTriggeredMessage(status core.AlertStatus) *AlertTriggeredMessage {
	return &AlertTriggeredMessage{
		AlertID:       status.AlertID,
		Type:          string(status.Type),
		Category:      status.Category,
		LimitAmount:   status.LimitAmount,
		CurrentAmount: status.CurrentAmount,
		Percentage:    status.Percentage,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AlertTriggeredMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertTriggeredMessageFromJSON creates a message from JSON bytes
func AlertTriggeredMessageFromJSON(data []byte) (*AlertTriggeredMessage, error) {
	var msg AlertTriggeredMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
