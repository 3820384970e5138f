package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/entity"
	applog "github.com/Additional-Code/innkeep/internal/logger"
	"github.com/Additional-Code/innkeep/internal/messaging"
	eventrepo "github.com/Additional-Code/innkeep/internal/repository/event"
	ordersvc "github.com/Additional-Code/innkeep/internal/service/order"
	"github.com/Additional-Code/innkeep/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/innkeep/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewAuditHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// AuditAppender stores order events.
type AuditAppender interface {
	Append(ctx context.Context, ev *entity.OrderEvent) error
}

// NewAuditHandler registers a handler that records every order event in the audit table.
func NewAuditHandler(logger *zap.Logger, cfg config.Config, events *eventrepo.Repository) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Name:    "orders.audit",
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: AuditHandler(logger, events),
	}
}

// AuditHandler decodes an order event and appends it to store.
// Undecodable messages are logged and dropped so they do not block the partition.
func AuditHandler(logger *zap.Logger, store AuditAppender) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.audit", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err), zap.Int64("offset", msg.Offset))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return nil
		}
		eventType := msg.Header(messaging.HeaderEventType)
		if eventType == "" {
			eventType = event.Type
		}
		if event.OrderID == "" || eventType == "" {
			logger.Warn("order event missing identity", zap.String("type", eventType), zap.Int64("offset", msg.Offset))
			return nil
		}
		span.SetAttributes(attribute.String("order.id", event.OrderID), attribute.String("event.type", eventType))

		record := &entity.OrderEvent{
			OrderID:    event.OrderID,
			EventType:  eventType,
			Payload:    string(msg.Value),
			OccurredAt: event.OccurredAt,
		}
		if record.OccurredAt.IsZero() {
			record.OccurredAt = msg.Time
		}
		if err := store.Append(ctx, record); err != nil {
			applog.WithSpan(span, logger).Error("failed to record order event", zap.String("order_id", event.OrderID), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "append failed")
			return err
		}

		logger.Info("order event recorded",
			zap.String("order_id", event.OrderID),
			zap.String("type", eventType),
			zap.String("order_status", string(event.OrderStatus)),
			zap.String("payment_status", string(event.PaymentStatus)),
		)
		return nil
	}
}
