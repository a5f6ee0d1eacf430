package order

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/messaging"
	"github.com/cTHE0/restaurant/internal/worker"
)

var workerTracer = otel.Tracer("github.com/cTHE0/restaurant/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderCreatedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
		fx.Annotate(
			NewStatusChangedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderCreatedHandler logs each new order so the kitchen feed sees it.
func NewOrderCreatedHandler(logger *zap.Logger) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		EventType: messaging.EventOrderCreated,
		Handler: traced(logger, "worker.orders.created", func(_ context.Context, event messaging.OrderEvent) {
			logger.Info("order received",
				zap.Int64("order_id", event.OrderID),
				zap.String("table", event.TableNumber),
				zap.String("status", event.Status),
				zap.Float64("total", event.Total),
			)
		}),
	}
}

func traced(logger *zap.Logger, name string, fn func(context.Context, messaging.OrderEvent)) messaging.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, name, trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		event, err := messaging.DecodeOrderEvent(msg)
		if err != nil {
			logger.Error("failed to decode order event", zap.String("topic", msg.Topic), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.Int64("order.id", event.OrderID))
		fn(ctx, event)
		return nil
	}
}
