package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/config"
	"github.com/cTHE0/restaurant/internal/messaging"
)

type replayClient struct {
	messages []messaging.Message
}

func (c *replayClient) Publish(context.Context, messaging.Message) error { return nil }
func (c *replayClient) Topic() string                                    { return "restaurant.orders" }

func (c *replayClient) Consume(ctx context.Context, handler messaging.Handler) error {
	for _, msg := range c.messages {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func eventMessage(eventType string) messaging.Message {
	return messaging.Message{
		Topic:   "restaurant.orders",
		Value:   []byte(`{}`),
		Headers: map[string]string{messaging.HeaderEventType: eventType},
	}
}

func TestDispatchRoutesByEventType(t *testing.T) {
	var seen []string
	record := func(name string) messaging.Handler {
		return func(_ context.Context, msg messaging.Message) error {
			seen = append(seen, name)
			return nil
		}
	}

	engine := NewEngine(Params{
		Client: &replayClient{},
		Logger: zap.NewNop(),
		Registrations: []HandlerRegistration{
			{EventType: messaging.EventOrderCreated, Handler: record("created")},
			{EventType: messaging.EventOrderStatusChanged, Handler: record("status")},
			{EventType: "", Handler: record("ignored")},
		},
	})

	ctx := context.Background()
	require.NoError(t, engine.Dispatch(ctx, eventMessage(messaging.EventOrderStatusChanged)))
	require.NoError(t, engine.Dispatch(ctx, eventMessage(messaging.EventOrderCreated)))
	require.NoError(t, engine.Dispatch(ctx, eventMessage("order.unknown")))

	assert.Equal(t, []string{"status", "created"}, seen)
}

func TestEngineConsumesUntilStopped(t *testing.T) {
	var (
		mu    sync.Mutex
		count int
	)
	done := make(chan struct{})
	client := &replayClient{messages: []messaging.Message{
		eventMessage(messaging.EventOrderCreated),
		eventMessage(messaging.EventOrderCreated),
	}}

	cfg := config.Config{Messaging: config.Messaging{Enabled: true, Workers: config.Worker{Enabled: true, Concurrency: 1}}}
	engine := NewEngine(Params{
		Client: client,
		Config: cfg,
		Registrations: []HandlerRegistration{{
			EventType: messaging.EventOrderCreated,
			Handler: func(context.Context, messaging.Message) error {
				mu.Lock()
				defer mu.Unlock()
				count++
				if count == 2 {
					close(done)
				}
				return nil
			},
		}},
	})

	require.NoError(t, engine.start(context.Background()))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("messages were not consumed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, engine.stop(ctx))
}

func TestEngineDisabledDoesNotConsume(t *testing.T) {
	engine := NewEngine(Params{
		Client:        &replayClient{},
		Registrations: []HandlerRegistration{{EventType: messaging.EventOrderCreated, Handler: func(context.Context, messaging.Message) error { return nil }}},
	})
	require.NoError(t, engine.start(context.Background()))
	assert.Nil(t, engine.cancel)
	require.NoError(t, engine.stop(context.Background()))
}
