package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderEventRoundTrip(t *testing.T) {
	event := OrderEvent{
		Type:           EventOrderStatusChanged,
		OrderID:        42,
		TableNumber:    "5",
		Status:         "preparing",
		PreviousStatus: "pending",
		Total:          32,
		OccurredAt:     time.Date(2026, 5, 1, 19, 30, 0, 0, time.UTC),
	}

	msg, err := event.Message()
	require.NoError(t, err)
	assert.Equal(t, "order-42", string(msg.Key))
	assert.Equal(t, EventOrderStatusChanged, msg.Headers[HeaderEventType])

	decoded, err := DecodeOrderEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestDecodeOrderEventRejectsUnknownType(t *testing.T) {
	_, err := DecodeOrderEvent(Message{Value: []byte(`{"type":"menu.updated"}`)})
	assert.Error(t, err)

	_, err = DecodeOrderEvent(Message{Value: []byte(`not json`)})
	assert.Error(t, err)
}

func TestNoopClientConsumeBlocksUntilCancel(t *testing.T) {
	client := NewNoop("restaurant.orders")
	assert.Equal(t, "restaurant.orders", client.Topic())
	require.NoError(t, client.Publish(context.Background(), Message{Value: []byte("x")}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, client.Consume(ctx, nil), context.DeadlineExceeded)
}
