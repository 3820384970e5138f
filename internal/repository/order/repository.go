package order

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/innkeep/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// WithTx returns a repository whose reads and writes go through tx.
func (r *Repository) WithTx(tx bun.IDB) *Repository {
	return &Repository{writer: tx, reader: tx}
}

// Create persists a new order using the write connection.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.id", order.OrderID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches the bare order row.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("o.order_id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// Update writes every mutable column of order.
func (r *Repository) Update(ctx context.Context, order *entity.Order) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.String("order.id", order.OrderID)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(order).
		ExcludeColumn("order_id", "created_on", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return requireAffected(res)
}

// Delete removes the order row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Order)(nil)).Where("order_id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	return requireAffected(res)
}

// LatestIDWithPrefix returns the greatest order id starting with prefix, or "" when none exists.
// Ids are ordered by length first so serials past 999 still sort after shorter ones.
func (r *Repository) LatestIDWithPrefix(ctx context.Context, prefix string) (string, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.LatestIDWithPrefix", trace.WithAttributes(attribute.String("order.prefix", prefix)))
	defer span.End()

	var ids []string
	err := r.writer.NewSelect().
		Model((*entity.Order)(nil)).
		Column("o.order_id").
		Where("o.order_id LIKE ?", prefix+"%").
		OrderExpr("LENGTH(o.order_id) DESC, o.order_id DESC").
		Limit(1).
		Scan(ctx, &ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// IDsForRoom returns the ids of every order booked on room, whatever its status.
func (r *Repository) IDsForRoom(ctx context.Context, room string) ([]string, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.IDsForRoom", trace.WithAttributes(attribute.String("room.number", room)))
	defer span.End()

	var ids []string
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		Column("o.order_id").
		Where("o.room_number = ?", room).
		OrderExpr("o.order_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return ids, nil
}

// Conflicts returns the ids of active orders on room whose stay overlaps [checkIn, checkOut).
// Two windows overlap iff each starts before the other ends; excludeID is ignored when empty.
func (r *Repository) Conflicts(ctx context.Context, room, checkIn, checkOut, excludeID string) ([]string, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Conflicts", trace.WithAttributes(
		attribute.String("room.number", room),
		attribute.String("order.check_in", checkIn),
		attribute.String("order.check_out", checkOut),
	))
	defer span.End()

	q := r.writer.NewSelect().
		Model((*entity.Order)(nil)).
		Column("o.order_id").
		Where("o.room_number = ?", room).
		Where("o.order_status IN (?)", bun.In(entity.ActiveOrderStatuses)).
		Where("o.check_in_date < ?", checkOut).
		Where("? < o.check_out_date", checkIn)
	if excludeID != "" {
		q = q.Where("o.order_id <> ?", excludeID)
	}

	var ids []string
	if err := q.Scan(ctx, &ids); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
