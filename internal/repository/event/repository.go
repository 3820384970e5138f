package event

import (
	"context"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/innkeep/repository/event")

// Module provides the order event repository to Fx.
var Module = fx.Provide(NewRepository)

// Repository stores the order audit trail.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Append records an event.
func (r *Repository) Append(ctx context.Context, ev *entity.OrderEvent) error {
	ctx, span := repoTracer.Start(ctx, "EventRepository.Append", trace.WithAttributes(
		attribute.String("order.id", ev.OrderID),
		attribute.String("event.type", ev.EventType),
	))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(ev).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// ForOrder lists the events recorded for orderID, oldest first.
func (r *Repository) ForOrder(ctx context.Context, orderID string) ([]entity.OrderEvent, error) {
	ctx, span := repoTracer.Start(ctx, "EventRepository.ForOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	events := make([]entity.OrderEvent, 0)
	err := r.reader.NewSelect().
		Model(&events).
		Where("ev.order_id = ?", orderID).
		OrderExpr("ev.occurred_at ASC, ev.id ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return events, nil
}
