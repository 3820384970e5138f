package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/cache"
	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
	applog "github.com/Additional-Code/innkeep/internal/logger"
	"github.com/Additional-Code/innkeep/internal/messaging"
	customerrepo "github.com/Additional-Code/innkeep/internal/repository/customer"
	eventrepo "github.com/Additional-Code/innkeep/internal/repository/event"
	repo "github.com/Additional-Code/innkeep/internal/repository/order"
	roomrepo "github.com/Additional-Code/innkeep/internal/repository/room"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

var (
	serviceTracer = otel.Tracer("github.com/Additional-Code/innkeep/service/order")
	serviceMeter  = otel.Meter("github.com/Additional-Code/innkeep/service/order")
)

// publishTimeout bounds how long a committed write waits on the message bus.
const publishTimeout = 5 * time.Second

// Service encapsulates the reservation engine: availability, lifecycle, payments and reporting.
type Service struct {
	conns     *database.Connections
	orders    *repo.Repository
	rooms     *roomrepo.Repository
	customers *customerrepo.Repository
	events    *eventrepo.Repository
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	settings  config.Orders
	metrics   counters
	now       func() time.Time

	// writeMu serializes the read-then-write sequences of this process.
	writeMu sync.Mutex
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
	timeout time.Duration
}

type counters struct {
	created   metric.Int64Counter
	payments  metric.Int64Counter
	conflicts metric.Int64Counter
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Connections *database.Connections
	Orders      *repo.Repository
	Rooms       *roomrepo.Repository
	Customers   *customerrepo.Repository
	Events      *eventrepo.Repository
	Cache       cache.Store
	Config      config.Config
	Logger      *zap.Logger
	Publisher   messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		conns:     p.Connections,
		orders:    p.Orders,
		rooms:     p.Rooms,
		customers: p.Customers,
		events:    p.Events,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
			timeout: publishTimeout,
		},
		settings: p.Config.Orders,
		metrics:  newCounters(logger),
		now:      time.Now,
	}
}

func newCounters(logger *zap.Logger) counters {
	var c counters
	var err error
	if c.created, err = serviceMeter.Int64Counter("orders.created", metric.WithDescription("Orders persisted")); err != nil {
		logger.Warn("orders.created counter unavailable", zap.Error(err))
	}
	if c.payments, err = serviceMeter.Int64Counter("orders.payments", metric.WithDescription("Payments applied to orders")); err != nil {
		logger.Warn("orders.payments counter unavailable", zap.Error(err))
	}
	if c.conflicts, err = serviceMeter.Int64Counter("orders.conflicts", metric.WithDescription("Bookings rejected for overlapping stays")); err != nil {
		logger.Warn("orders.conflicts counter unavailable", zap.Error(err))
	}
	return c
}

func count(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// Get retrieves an order with its display fields, consulting cache when available.
func (s *Service) Get(ctx context.Context, id string) (*entity.OrderDetail, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if detail, err := s.getFromCache(ctx, id); err == nil {
		return detail, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
	}

	detail, err := s.orders.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, orderNotFound(id)
		}
		return nil, s.fail(span, "load order", err)
	}

	if err := s.storeInCache(ctx, detail); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", id), zap.Error(err))
	}
	return detail, nil
}

// Create validates in, checks the room is free for the stay and persists a new order.
// Availability, id generation and the insert share one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.OrderDetail, error) {
	in.normalize()
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(
		attribute.String("room.number", in.RoomNumber),
		attribute.String("order.check_in", in.CheckInDate),
		attribute.String("order.check_out", in.CheckOutDate),
	))
	defer span.End()

	days, err := in.validate()
	if err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}

	attempts := s.settings.CreateRetries
	if attempts < 1 {
		attempts = 1
	}

	var order *entity.Order
	for attempt := 1; ; attempt++ {
		order, err = s.createOnce(ctx, in, days)
		if err == nil {
			break
		}
		if attempt >= attempts || !database.IsUniqueViolation(err) {
			return nil, s.fail(span, "create order", err)
		}
		s.logger.Warn("order id taken; retrying", zap.Int("attempt", attempt), zap.Error(err))
	}
	span.SetAttributes(attribute.String("order.id", order.OrderID))

	count(ctx, s.metrics.created, attribute.String("room.number", order.RoomNumber))
	s.publish(ctx, EventCreated, order, decimal.Zero)
	s.logger.Info("order created",
		zap.String("order_id", order.OrderID),
		zap.String("room_number", order.RoomNumber),
		zap.String("check_in", order.CheckInDate),
		zap.String("check_out", order.CheckOutDate),
	)
	return s.reload(ctx, span, order.OrderID)
}

func (s *Service) createOnce(ctx context.Context, in CreateInput, days int) (*entity.Order, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now().UTC()
	order := &entity.Order{
		CustomerID:      in.CustomerID,
		RoomNumber:      in.RoomNumber,
		EmployeeID:      in.EmployeeID,
		CheckInDate:     in.CheckInDate,
		CheckOutDate:    in.CheckOutDate,
		Days:            days,
		OrderStatus:     entity.OrderReserved,
		SpecialRequests: in.SpecialRequests,
		CreatedOn:       now.Format(entity.DateLayout),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.OrderStatus != "" {
		order.OrderStatus = entity.OrderStatus(in.OrderStatus)
	}
	if in.PaidAmount != nil {
		order.PaidAmount = *in.PaidAmount
	}

	err := s.conns.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		orders := s.orders.WithTx(tx)

		if err := s.requireCustomer(ctx, tx, in.CustomerID); err != nil {
			return err
		}
		room, err := s.requireRoom(ctx, tx, in.RoomNumber)
		if err != nil {
			return err
		}
		if order.OrderStatus.Active() {
			avail, err := availability(ctx, orders, room, in.CheckInDate, in.CheckOutDate, "")
			if err != nil {
				return err
			}
			if !avail.Available {
				count(ctx, s.metrics.conflicts, attribute.String("room.number", room.RoomNumber))
				return conflict(room.RoomNumber, avail)
			}
		}

		if in.TotalAmount != nil {
			order.TotalAmount = *in.TotalAmount
		} else {
			order.TotalAmount = s.stayTotal(room, days)
		}
		settle(order, entity.PaymentStatus(in.PaymentStatus))

		prefix := idPrefix(now)
		latest, err := orders.LatestIDWithPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		if order.OrderID, err = nextOrderID(prefix, latest); err != nil {
			return err
		}
		return orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Update merges in onto the stored order. Status changes must follow the lifecycle table,
// and moving the stay or reactivating the order re-runs the availability check.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*entity.OrderDetail, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.update(ctx, id, in)
	if err != nil {
		return nil, s.fail(span, "update order", err)
	}

	s.forget(ctx, id)
	s.publish(ctx, EventUpdated, order, decimal.Zero)
	return s.reload(ctx, span, id)
}

func (s *Service) update(ctx context.Context, id string, in UpdateInput) (*entity.Order, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var next entity.Order
	err := s.conns.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		orders := s.orders.WithTx(tx)

		current, err := orders.GetByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return orderNotFound(id)
		}
		if err != nil {
			return err
		}
		next = *current

		if in.CustomerID != nil && *in.CustomerID != current.CustomerID {
			if err := s.requireCustomer(ctx, tx, *in.CustomerID); err != nil {
				return err
			}
			next.CustomerID = *in.CustomerID
		}
		if in.RoomNumber != nil {
			room := strings.TrimSpace(*in.RoomNumber)
			if room == "" {
				return missingField("room_number")
			}
			next.RoomNumber = room
		}
		if in.CheckInDate != nil {
			next.CheckInDate = strings.TrimSpace(*in.CheckInDate)
		}
		if in.CheckOutDate != nil {
			next.CheckOutDate = strings.TrimSpace(*in.CheckOutDate)
		}
		if in.EmployeeID != nil {
			next.EmployeeID = strings.TrimSpace(*in.EmployeeID)
		}
		if in.SpecialRequests != nil {
			next.SpecialRequests = *in.SpecialRequests
		}
		if in.OrderStatus != nil {
			status, err := parseOrderStatus(strings.TrimSpace(*in.OrderStatus))
			if err != nil {
				return err
			}
			if err := CanTransition(current.OrderStatus, status); err != nil {
				return err
			}
			next.OrderStatus = status
		}

		requested := entity.PaymentStatus("")
		if current.PaymentStatus == entity.PaymentRefunded {
			requested = entity.PaymentRefunded
		}
		if in.PaymentStatus != nil {
			if requested, err = parsePaymentStatus(strings.TrimSpace(*in.PaymentStatus)); err != nil {
				return err
			}
		}

		if next.Days, err = StayDays(next.CheckInDate, next.CheckOutDate); err != nil {
			return err
		}

		if in.TotalAmount != nil {
			if err := checkAmount("total_amount", in.TotalAmount); err != nil {
				return err
			}
			next.TotalAmount = *in.TotalAmount
		}
		if in.PaidAmount != nil {
			if err := checkAmount("paid_amount", in.PaidAmount); err != nil {
				return err
			}
			if in.PaidAmount.LessThan(current.PaidAmount) {
				return invalidAmount("paid_amount", "must not decrease")
			}
			next.PaidAmount = *in.PaidAmount
		}

		reactivated := next.OrderStatus.Active() && !current.OrderStatus.Active()
		if in.movesStay() || reactivated {
			room, err := s.requireRoom(ctx, tx, next.RoomNumber)
			if err != nil {
				return err
			}
			if next.OrderStatus.Active() {
				avail, err := availability(ctx, orders, room, next.CheckInDate, next.CheckOutDate, id)
				if err != nil {
					return err
				}
				if !avail.Available {
					count(ctx, s.metrics.conflicts, attribute.String("room.number", room.RoomNumber))
					return conflict(room.RoomNumber, avail)
				}
			}
			if in.TotalAmount == nil && in.movesStay() {
				next.TotalAmount = s.stayTotal(room, next.Days)
			}
		}

		settle(&next, requested)
		next.UpdatedAt = s.now().UTC()
		return orders.Update(ctx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// Delete hard-deletes an order. Rooms are left untouched.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	s.writeMu.Lock()
	var removed *entity.Order
	err := s.conns.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		orders := s.orders.WithTx(tx)
		current, err := orders.GetByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return orderNotFound(id)
		}
		if err != nil {
			return err
		}
		if err := orders.Delete(ctx, id); err != nil {
			return err
		}
		removed = current
		return nil
	})
	s.writeMu.Unlock()
	if err != nil {
		return s.fail(span, "delete order", err)
	}

	s.forget(ctx, id)
	s.publish(ctx, EventDeleted, removed, decimal.Zero)
	s.logger.Info("order deleted", zap.String("order_id", id))
	return nil
}

func (s *Service) requireCustomer(ctx context.Context, tx bun.IDB, id int64) error {
	_, err := s.customers.WithTx(tx).Get(ctx, id)
	if errors.Is(err, customerrepo.ErrNotFound) {
		return customerNotFound(id)
	}
	return err
}

func (s *Service) requireRoom(ctx context.Context, db bun.IDB, number string) (*entity.Room, error) {
	rooms := s.rooms
	if db != nil {
		rooms = rooms.WithTx(db)
	}
	room, err := rooms.Get(ctx, number)
	if errors.Is(err, roomrepo.ErrNotFound) {
		return nil, roomNotFound(number)
	}
	return room, err
}

// stayTotal prices a stay from the room's nightly rate.
func (s *Service) stayTotal(room *entity.Room, days int) decimal.Decimal {
	total := room.Price.Mul(decimal.NewFromInt(int64(days)))
	if !total.IsPositive() {
		s.logger.Warn("order total defaulted to zero",
			zap.String("room_number", room.RoomNumber),
			zap.String("price", room.Price.String()),
		)
		return decimal.Zero
	}
	return total
}

func (s *Service) reload(ctx context.Context, span trace.Span, id string) (*entity.OrderDetail, error) {
	detail, err := s.orders.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, orderNotFound(id)
		}
		return nil, s.fail(span, "load order", err)
	}
	return detail, nil
}

// fail passes AppErrors through and converts anything else into a logged persistence failure.
func (s *Service) fail(span trace.Span, action string, err error) error {
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		span.SetStatus(codes.Error, appErr.Message())
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	applog.WithSpan(span, s.logger).Error("failed to "+action, zap.Error(err))
	return persistence(action, err)
}

func (s *Service) publish(ctx context.Context, eventType string, order *entity.Order, amount decimal.Decimal) {
	if !s.messaging.enabled || s.publisher == nil || order == nil {
		return
	}
	event := newEvent(eventType, order, amount, s.now().UTC())
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.String("type", eventType), zap.Error(err))
		return
	}
	// The write has committed; the caller's deadline belongs to the response, not the bus.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.messaging.timeout)
	defer cancel()

	headers := map[string]string{messaging.HeaderEventType: eventType}
	if err := s.publisher.Publish(ctx, []byte(order.OrderID), payload, headers); err != nil {
		s.logger.Error("publish order event", zap.String("type", eventType), zap.String("order_id", order.OrderID), zap.Error(err))
	}
}

func (s *Service) cacheKey(id string) string {
	return fmt.Sprintf("orders:%s", id)
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.OrderDetail, error) {
	return cache.GetJSON[entity.OrderDetail](ctx, s.cache, s.cacheKey(id))
}

func (s *Service) storeInCache(ctx context.Context, detail *entity.OrderDetail) error {
	if detail == nil {
		return nil
	}
	return cache.SetJSON(ctx, s.cache, s.cacheKey(detail.OrderID), detail, s.cacheTTL)
}

func (s *Service) forget(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("orders cache delete failed", zap.String("id", id), zap.Error(err))
	}
}

// ForgetRoom drops the cached reads of every order on room, since they embed its type and price.
func (s *Service) ForgetRoom(ctx context.Context, number string) error {
	if s.cache == nil {
		return nil
	}
	ids, err := s.orders.IDsForRoom(ctx, number)
	if err != nil {
		return fmt.Errorf("list orders of room %s: %w", number, err)
	}
	for _, id := range ids {
		s.forget(ctx, id)
	}
	return nil
}
