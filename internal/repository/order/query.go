package order

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/codes"

	"github.com/Additional-Code/innkeep/internal/entity"
)

// Sort selects the ordering applied to a detail listing.
type Sort int

const (
	// SortNewest orders by creation time, newest first.
	SortNewest Sort = iota
	// SortCheckInDesc orders by check-in date, latest first.
	SortCheckInDesc
	// SortCheckInAsc orders by check-in date, earliest first.
	SortCheckInAsc
)

// Filter narrows a detail listing. Zero values are ignored.
type Filter struct {
	Search        string
	OrderStatus   entity.OrderStatus
	PaymentStatus entity.PaymentStatus
	StartDate     string // check_in_date >= StartDate
	EndDate       string // check_out_date <= EndDate
	CreatedOn     string
	CustomerID    int64
	RoomNumber    string
	Sort          Sort
	Limit         int
	Offset        int
}

// GetDetail fetches a single order joined with customer, room and employee fields.
func (r *Repository) GetDetail(ctx context.Context, id string) (*entity.OrderDetail, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetDetail")
	defer span.End()

	var details []entity.OrderDetail
	if err := r.detailQuery(&details).Where("o.order_id = ?", id).Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	if len(details) == 0 {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	return &details[0], nil
}

// Find lists joined orders matching f and reports the total number of matches
// before Limit/Offset are applied.
func (r *Repository) Find(ctx context.Context, f Filter) ([]entity.OrderDetail, int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Find")
	defer span.End()

	details := make([]entity.OrderDetail, 0)
	q := applyFilter(r.detailQuery(&details), f)
	switch f.Sort {
	case SortCheckInDesc:
		q = q.OrderExpr("o.check_in_date DESC, o.order_id DESC")
	case SortCheckInAsc:
		q = q.OrderExpr("o.check_in_date ASC, o.order_id ASC")
	default:
		q = q.OrderExpr("o.created_at DESC, o.order_id DESC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	return details, total, nil
}

func (r *Repository) detailQuery(dest *[]entity.OrderDetail) *bun.SelectQuery {
	return r.reader.NewSelect().
		Model(dest).
		ColumnExpr("o.*").
		ColumnExpr("c.name AS customer_name").
		ColumnExpr("c.phone AS customer_phone").
		ColumnExpr("c.id_card AS customer_id_card").
		ColumnExpr("r.room_type AS room_type").
		ColumnExpr("COALESCE(r.price, 0) AS room_price").
		ColumnExpr("e.employee_name AS employee_name").
		Join("LEFT JOIN customers AS c ON c.id = o.customer_id").
		Join("LEFT JOIN rooms AS r ON r.room_number = o.room_number").
		Join("LEFT JOIN employees AS e ON e.employee_id = o.employee_id")
}

func applyFilter(q *bun.SelectQuery, f Filter) *bun.SelectQuery {
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("o.order_id LIKE ?", like).
				WhereOr("c.name LIKE ?", like).
				WhereOr("o.room_number LIKE ?", like).
				WhereOr("c.phone LIKE ?", like)
		})
	}
	if f.OrderStatus != "" {
		q = q.Where("o.order_status = ?", f.OrderStatus)
	}
	if f.PaymentStatus != "" {
		q = q.Where("o.payment_status = ?", f.PaymentStatus)
	}
	if f.StartDate != "" {
		q = q.Where("o.check_in_date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("o.check_out_date <= ?", f.EndDate)
	}
	if f.CreatedOn != "" {
		q = q.Where("o.created_on = ?", f.CreatedOn)
	}
	if f.CustomerID != 0 {
		q = q.Where("o.customer_id = ?", f.CustomerID)
	}
	if f.RoomNumber != "" {
		q = q.Where("o.room_number = ?", f.RoomNumber)
	}
	return q
}

// StatusCount is one row of a grouped count.
type StatusCount struct {
	Status string `bun:"status" json:"status"`
	Count  int    `bun:"count" json:"count"`
}

// DayRollup aggregates the orders created on a single day.
type DayRollup struct {
	Total       int             `bun:"total" json:"total"`
	Reserved    int             `bun:"reserved" json:"reserved"`
	CheckedIn   int             `bun:"checked_in" json:"checked_in"`
	Completed   int             `bun:"completed" json:"completed"`
	Cancelled   int             `bun:"cancelled" json:"cancelled"`
	TotalAmount decimal.Decimal `bun:"total_amount" json:"total_amount"`
	PaidAmount  decimal.Decimal `bun:"paid_amount" json:"paid_amount"`
}

// DailyPoint is one day of a creation-date trend.
type DailyPoint struct {
	Date        string          `bun:"date" json:"date"`
	Count       int             `bun:"count" json:"count"`
	TotalAmount decimal.Decimal `bun:"total_amount" json:"total_amount"`
	PaidAmount  decimal.Decimal `bun:"paid_amount" json:"paid_amount"`
}

// GroupAmount is an amount total grouped by a label.
type GroupAmount struct {
	Label       string          `bun:"label" json:"label"`
	Count       int             `bun:"count" json:"count"`
	TotalAmount decimal.Decimal `bun:"total_amount" json:"total_amount"`
	PaidAmount  decimal.Decimal `bun:"paid_amount" json:"paid_amount"`
}

// Count returns the number of persisted orders.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Count")
	defer span.End()

	n, err := r.reader.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
	}
	return n, err
}

// CountByColumn groups orders by order_status or payment_status.
func (r *Repository) CountByColumn(ctx context.Context, column string) ([]StatusCount, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CountByColumn")
	defer span.End()

	rows := make([]StatusCount, 0)
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("o.? AS status", bun.Ident(column)).
		ColumnExpr("COUNT(*) AS count").
		GroupExpr("o.?", bun.Ident(column)).
		OrderExpr("o.?", bun.Ident(column)).
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// RollupForDay aggregates orders created on day.
func (r *Repository) RollupForDay(ctx context.Context, day string) (DayRollup, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.RollupForDay")
	defer span.End()

	var rollup DayRollup
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("COALESCE(SUM(CASE WHEN o.order_status = ? THEN 1 ELSE 0 END), 0) AS reserved", entity.OrderReserved).
		ColumnExpr("COALESCE(SUM(CASE WHEN o.order_status = ? THEN 1 ELSE 0 END), 0) AS checked_in", entity.OrderCheckedIn).
		ColumnExpr("COALESCE(SUM(CASE WHEN o.order_status = ? THEN 1 ELSE 0 END), 0) AS completed", entity.OrderCompleted).
		ColumnExpr("COALESCE(SUM(CASE WHEN o.order_status = ? THEN 1 ELSE 0 END), 0) AS cancelled", entity.OrderCancelled).
		ColumnExpr("COALESCE(SUM(o.total_amount), 0) AS total_amount").
		ColumnExpr("COALESCE(SUM(o.paid_amount), 0) AS paid_amount").
		Where("o.created_on = ?", day).
		Scan(ctx, &rollup)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return DayRollup{}, err
	}
	return rollup, nil
}

// DailyTrend aggregates orders per creation date within [from, to].
func (r *Repository) DailyTrend(ctx context.Context, from, to string) ([]DailyPoint, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.DailyTrend")
	defer span.End()

	points := make([]DailyPoint, 0)
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("o.created_on AS date").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(o.total_amount), 0) AS total_amount").
		ColumnExpr("COALESCE(SUM(o.paid_amount), 0) AS paid_amount").
		Where("o.created_on >= ?", from).
		Where("o.created_on <= ?", to).
		GroupExpr("o.created_on").
		OrderExpr("o.created_on ASC").
		Scan(ctx, &points)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return points, nil
}

// AmountsByPaymentStatus sums amounts per payment status for orders created within [from, to].
func (r *Repository) AmountsByPaymentStatus(ctx context.Context, from, to string) ([]GroupAmount, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.AmountsByPaymentStatus")
	defer span.End()

	rows := make([]GroupAmount, 0)
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("o.payment_status AS label").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(o.total_amount), 0) AS total_amount").
		ColumnExpr("COALESCE(SUM(o.paid_amount), 0) AS paid_amount").
		Where("o.created_on >= ?", from).
		Where("o.created_on <= ?", to).
		GroupExpr("o.payment_status").
		OrderExpr("o.payment_status").
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// AmountsByRoomType sums amounts per room type for orders created within [from, to].
func (r *Repository) AmountsByRoomType(ctx context.Context, from, to string) ([]GroupAmount, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.AmountsByRoomType")
	defer span.End()

	rows := make([]GroupAmount, 0)
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("r.room_type AS label").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(o.total_amount), 0) AS total_amount").
		ColumnExpr("COALESCE(SUM(o.paid_amount), 0) AS paid_amount").
		Join("JOIN rooms AS r ON r.room_number = o.room_number").
		Where("o.created_on >= ?", from).
		Where("o.created_on <= ?", to).
		GroupExpr("r.room_type").
		OrderExpr("total_amount DESC, r.room_type").
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// ActiveOn returns the active order status per room for stays covering day.
// A checked-in stay wins over a reservation on the same room.
func (r *Repository) ActiveOn(ctx context.Context, day string) (map[string]entity.OrderStatus, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ActiveOn")
	defer span.End()

	var rows []struct {
		RoomNumber  string             `bun:"room_number"`
		OrderStatus entity.OrderStatus `bun:"order_status"`
	}
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		Column("o.room_number", "o.order_status").
		Where("o.order_status IN (?)", bun.In(entity.ActiveOrderStatuses)).
		Where("o.check_in_date <= ?", day).
		Where("o.check_out_date > ?", day).
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	out := make(map[string]entity.OrderStatus, len(rows))
	for _, row := range rows {
		if out[row.RoomNumber] == entity.OrderCheckedIn {
			continue
		}
		out[row.RoomNumber] = row.OrderStatus
	}
	return out, nil
}

// CountActiveForRoom counts active orders that reference room.
func (r *Repository) CountActiveForRoom(ctx context.Context, room string) (int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CountActiveForRoom")
	defer span.End()

	n, err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		Where("o.room_number = ?", room).
		Where("o.order_status IN (?)", bun.In(entity.ActiveOrderStatuses)).
		Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
	}
	return n, err
}
