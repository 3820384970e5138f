package order

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Additional-Code/innkeep/internal/entity"
	repo "github.com/Additional-Code/innkeep/internal/repository/order"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

// ListQuery carries the filters of the order listing and export.
type ListQuery struct {
	Search        string
	OrderStatus   string
	PaymentStatus string
	StartDate     string
	EndDate       string
	Page          int
}

// Page is one page of a filtered order listing.
type Page struct {
	Items    []entity.OrderDetail `json:"items"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

func (q ListQuery) filter() (repo.Filter, error) {
	f := repo.Filter{Search: strings.TrimSpace(q.Search)}
	if v := strings.TrimSpace(q.OrderStatus); v != "" {
		st, err := parseOrderStatus(v)
		if err != nil {
			return f, err
		}
		f.OrderStatus = st
	}
	if v := strings.TrimSpace(q.PaymentStatus); v != "" {
		st, err := parsePaymentStatus(v)
		if err != nil {
			return f, err
		}
		f.PaymentStatus = st
	}
	if v := strings.TrimSpace(q.StartDate); v != "" {
		if _, err := parseDate("start_date", v); err != nil {
			return f, err
		}
		f.StartDate = v
	}
	if v := strings.TrimSpace(q.EndDate); v != "" {
		if _, err := parseDate("end_date", v); err != nil {
			return f, err
		}
		f.EndDate = v
	}
	return f, nil
}

func (s *Service) pageSize() int {
	if s.settings.PageSize > 0 {
		return s.settings.PageSize
	}
	return 10
}

// List returns one page of orders matching q, newest first.
func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(attribute.Int("page", q.Page)))
	defer span.End()

	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := s.pageSize()
	f.Limit = size
	f.Offset = (page - 1) * size

	items, total, err := s.orders.Find(ctx, f)
	if err != nil {
		return nil, s.fail(span, "list orders", err)
	}
	return &Page{Items: items, Total: total, Page: page, PageSize: size}, nil
}

// Export returns every order matching q, unpaginated.
func (s *Service) Export(ctx context.Context, q ListQuery) ([]entity.OrderDetail, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Export")
	defer span.End()

	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	items, _, err := s.orders.Find(ctx, f)
	if err != nil {
		return nil, s.fail(span, "export orders", err)
	}
	return items, nil
}

// All lists every order, newest first.
func (s *Service) All(ctx context.Context) ([]entity.OrderDetail, error) {
	return s.find(ctx, "OrderService.All", repo.Filter{})
}

// ByDate lists the orders created on day, newest first.
func (s *Service) ByDate(ctx context.Context, day string) ([]entity.OrderDetail, error) {
	day = strings.TrimSpace(day)
	if _, err := parseDate("date", day); err != nil {
		return nil, err
	}
	return s.find(ctx, "OrderService.ByDate", repo.Filter{CreatedOn: day})
}

// ByCustomer lists a customer's orders, latest check-in first.
func (s *Service) ByCustomer(ctx context.Context, customerID int64) ([]entity.OrderDetail, error) {
	if customerID <= 0 {
		return nil, missingField("customer_id")
	}
	return s.find(ctx, "OrderService.ByCustomer", repo.Filter{CustomerID: customerID, Sort: repo.SortCheckInDesc})
}

// ByRoom lists a room's orders, latest check-in first. Non-empty bounds keep stays
// checking in on or after start and checking out on or before end.
func (s *Service) ByRoom(ctx context.Context, room, start, end string) ([]entity.OrderDetail, error) {
	room = strings.TrimSpace(room)
	if room == "" {
		return nil, missingField("room_number")
	}
	f := repo.Filter{RoomNumber: room, Sort: repo.SortCheckInDesc}
	if start != "" {
		if _, err := parseDate("start_date", start); err != nil {
			return nil, err
		}
		f.StartDate = start
	}
	if end != "" {
		if _, err := parseDate("end_date", end); err != nil {
			return nil, err
		}
		f.EndDate = end
	}
	return s.find(ctx, "OrderService.ByRoom", f)
}

// ByStatus lists orders in status, earliest check-in first.
func (s *Service) ByStatus(ctx context.Context, status string) ([]entity.OrderDetail, error) {
	st, err := parseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, err
	}
	return s.find(ctx, "OrderService.ByStatus", repo.Filter{OrderStatus: st, Sort: repo.SortCheckInAsc})
}

func (s *Service) find(ctx context.Context, name string, f repo.Filter) ([]entity.OrderDetail, error) {
	ctx, span := serviceTracer.Start(ctx, name)
	defer span.End()

	items, _, err := s.orders.Find(ctx, f)
	if err != nil {
		return nil, s.fail(span, "list orders", err)
	}
	return items, nil
}

// Statistics summarises the persisted orders.
type Statistics struct {
	TotalOrders     int                `json:"total_orders"`
	ByOrderStatus   []repo.StatusCount `json:"status_counts"`
	ByPaymentStatus []repo.StatusCount `json:"payment_counts"`
	Today           repo.DayRollup     `json:"today"`
	Trend           []repo.DailyPoint  `json:"trend"`
}

// Statistics computes counts, today's rollup and the recent creation trend. Nothing is cached.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Statistics")
	defer span.End()

	today := s.now().UTC()
	days := s.settings.TrendDays
	if days < 1 {
		days = 7
	}
	from := today.AddDate(0, 0, -(days - 1)).Format(entity.DateLayout)
	to := today.Format(entity.DateLayout)

	var stats Statistics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.orders.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ByOrderStatus, err = s.orders.CountByColumn(gctx, "order_status")
		return err
	})
	g.Go(func() (err error) {
		stats.ByPaymentStatus, err = s.orders.CountByColumn(gctx, "payment_status")
		return err
	})
	g.Go(func() (err error) {
		stats.Today, err = s.orders.RollupForDay(gctx, to)
		return err
	})
	g.Go(func() (err error) {
		stats.Trend, err = s.orders.DailyTrend(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, "compute statistics", err)
	}
	stats.Trend = fillDays(stats.Trend, today, days)
	return &stats, nil
}

// fillDays pads a trend with empty points so every day in the window appears once.
func fillDays(points []repo.DailyPoint, end time.Time, days int) []repo.DailyPoint {
	byDate := make(map[string]repo.DailyPoint, len(points))
	for _, p := range points {
		byDate[p.Date] = p
	}
	out := make([]repo.DailyPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := end.AddDate(0, 0, -i).Format(entity.DateLayout)
		p, ok := byDate[day]
		if !ok {
			p = repo.DailyPoint{Date: day, TotalAmount: decimal.Zero, PaidAmount: decimal.Zero}
		}
		out = append(out, p)
	}
	return out
}

// Revenue analyses order amounts for orders created in a date range.
type Revenue struct {
	StartDate       string             `json:"start_date"`
	EndDate         string             `json:"end_date"`
	TotalOrders     int                `json:"total_orders"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	PaidAmount      decimal.Decimal    `json:"paid_amount"`
	OutstandingDue  decimal.Decimal    `json:"outstanding_amount"`
	Daily           []repo.DailyPoint  `json:"daily"`
	ByRoomType      []repo.GroupAmount `json:"by_room_type"`
	ByPaymentStatus []repo.GroupAmount `json:"by_payment_status"`
}

// Revenue sums amounts for orders created within [start, end]. Empty bounds default to the
// configured trailing window ending today.
func (s *Service) Revenue(ctx context.Context, start, end string) (*Revenue, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Revenue")
	defer span.End()

	today := s.now().UTC()
	window := s.settings.RevenueDays
	if window < 1 {
		window = 30
	}
	if end == "" {
		end = today.Format(entity.DateLayout)
	}
	endDay, err := parseDate("end_date", end)
	if err != nil {
		return nil, err
	}
	if start == "" {
		start = endDay.AddDate(0, 0, -(window - 1)).Format(entity.DateLayout)
	}
	startDay, err := parseDate("start_date", start)
	if err != nil {
		return nil, err
	}
	if endDay.Before(startDay) {
		return nil, errorbank.BadRequest("end_date must not be before start_date",
			errorbank.WithCause(ErrInvalidDateRange),
			errorbank.WithDetail("start_date", start),
			errorbank.WithDetail("end_date", end))
	}

	out := Revenue{StartDate: start, EndDate: end}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Daily, err = s.orders.DailyTrend(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		out.ByRoomType, err = s.orders.AmountsByRoomType(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		out.ByPaymentStatus, err = s.orders.AmountsByPaymentStatus(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, "compute revenue", err)
	}

	out.TotalAmount, out.PaidAmount = decimal.Zero, decimal.Zero
	for _, p := range out.Daily {
		out.TotalOrders += p.Count
		out.TotalAmount = out.TotalAmount.Add(p.TotalAmount)
		out.PaidAmount = out.PaidAmount.Add(p.PaidAmount)
	}
	out.OutstandingDue = out.TotalAmount.Sub(out.PaidAmount)
	if out.OutstandingDue.IsNegative() {
		out.OutstandingDue = decimal.Zero
	}
	return &out, nil
}

// Events lists the audit trail recorded for an order, oldest first.
func (s *Service) Events(ctx context.Context, id string) ([]entity.OrderEvent, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Events", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	events, err := s.events.ForOrder(ctx, id)
	if err != nil {
		return nil, s.fail(span, "load order events", err)
	}
	return events, nil
}

// ParseAmount parses a decimal amount supplied by a caller.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, invalidAmount(field, "must be a decimal number")
	}
	return d, nil
}

// ParseCustomerID parses a customer id path or query parameter.
func ParseCustomerID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid customer id", errorbank.WithCause(ErrMissingField), errorbank.WithDetail("field", "customer_id"))
	}
	return id, nil
}
