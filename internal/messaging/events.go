package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Order event types.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// HeaderEventType carries the event type alongside the payload.
const HeaderEventType = "event-type"

// OrderEvent is the envelope published for order lifecycle changes.
type OrderEvent struct {
	Type           string    `json:"type"`
	OrderID        int64     `json:"order_id"`
	TableNumber    string    `json:"table_number"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Total          float64   `json:"total"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Message encodes the event, keyed by order so that events for one order
// stay on one partition.
func (e OrderEvent) Message() (Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Key:     []byte(fmt.Sprintf("order-%d", e.OrderID)),
		Value:   payload,
		Headers: map[string]string{HeaderEventType: e.Type},
	}, nil
}

// DecodeOrderEvent parses a consumed message into an OrderEvent.
func DecodeOrderEvent(msg Message) (OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return OrderEvent{}, fmt.Errorf("decode order event: %w", err)
	}
	if event.Type == "" {
		event.Type = msg.Headers[HeaderEventType]
	}
	switch event.Type {
	case EventOrderCreated, EventOrderStatusChanged:
		return event, nil
	default:
		return OrderEvent{}, fmt.Errorf("unknown order event type %q", event.Type)
	}
}
