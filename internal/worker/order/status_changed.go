package order

import (
	"context"

	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/messaging"
	"github.com/cTHE0/restaurant/internal/worker"
)

// NewStatusChangedHandler logs status transitions.
func NewStatusChangedHandler(logger *zap.Logger) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		EventType: messaging.EventOrderStatusChanged,
		Handler: traced(logger, "worker.orders.status_changed", func(_ context.Context, event messaging.OrderEvent) {
			logger.Info("order status changed",
				zap.Int64("order_id", event.OrderID),
				zap.String("table", event.TableNumber),
				zap.String("from", event.PreviousStatus),
				zap.String("to", event.Status),
			)
		}),
	}
}
