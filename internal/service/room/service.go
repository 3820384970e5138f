package room

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
	applog "github.com/Additional-Code/innkeep/internal/logger"
	orderrepo "github.com/Additional-Code/innkeep/internal/repository/order"
	roomrepo "github.com/Additional-Code/innkeep/internal/repository/room"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/innkeep/service/room")

// Module provides the room service to Fx.
var Module = fx.Provide(NewService)

// OrderCache drops cached order reads that embed a room's details.
type OrderCache interface {
	ForgetRoom(ctx context.Context, number string) error
}

// Service manages rooms and derives their occupancy from active orders.
type Service struct {
	conns      *database.Connections
	rooms      *roomrepo.Repository
	orders     *orderrepo.Repository
	orderCache OrderCache
	logger     *zap.Logger
	now        func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Connections *database.Connections
	Rooms       *roomrepo.Repository
	Orders      *orderrepo.Repository
	OrderCache  OrderCache `optional:"true"`
	Logger      *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		conns:      p.Connections,
		rooms:      p.Rooms,
		orders:     p.Orders,
		orderCache: p.OrderCache,
		logger:     p.Logger,
		now:        time.Now,
	}
}

// CreateInput describes a new room.
type CreateInput struct {
	RoomNumber  string          `json:"room_number"`
	RoomType    string          `json:"room_type"`
	Floor       int             `json:"floor"`
	Price       decimal.Decimal `json:"price"`
	Capacity    int             `json:"capacity"`
	Area        int             `json:"area"`
	HasWindow   bool            `json:"has_window"`
	Disabled    bool            `json:"disabled"`
	Description string          `json:"description"`
}

// UpdateInput is a partial room update; nil fields are left unchanged.
type UpdateInput struct {
	RoomType    *string          `json:"room_type"`
	Floor       *int             `json:"floor"`
	Price       *decimal.Decimal `json:"price"`
	Capacity    *int             `json:"capacity"`
	Area        *int             `json:"area"`
	HasWindow   *bool            `json:"has_window"`
	Disabled    *bool            `json:"disabled"`
	Description *string          `json:"description"`
}

// Occupancy summarises how many rooms hold an active stay today.
type Occupancy struct {
	Date          string          `json:"date"`
	TotalRooms    int             `json:"total_rooms"`
	OccupiedRooms int             `json:"occupied_rooms"`
	Rate          decimal.Decimal `json:"occupancy_rate"`
}

// List returns every room with its status derived for today.
func (s *Service) List(ctx context.Context) ([]entity.Room, error) {
	ctx, span := serviceTracer.Start(ctx, "RoomService.List")
	defer span.End()

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, s.fail(span, "list rooms", err)
	}
	active, err := s.orders.ActiveOn(ctx, s.today())
	if err != nil {
		return nil, s.fail(span, "list rooms", err)
	}
	for i := range rooms {
		rooms[i].Status = deriveStatus(rooms[i].Status, active[rooms[i].RoomNumber])
	}
	return rooms, nil
}

// Get returns one room with its status derived for today.
func (s *Service) Get(ctx context.Context, number string) (*entity.Room, error) {
	ctx, span := serviceTracer.Start(ctx, "RoomService.Get", trace.WithAttributes(attribute.String("room.number", number)))
	defer span.End()

	room, err := s.rooms.Get(ctx, number)
	if errors.Is(err, roomrepo.ErrNotFound) {
		return nil, notFound(number)
	}
	if err != nil {
		return nil, s.fail(span, "load room", err)
	}
	active, err := s.orders.ActiveOn(ctx, s.today())
	if err != nil {
		return nil, s.fail(span, "load room", err)
	}
	room.Status = deriveStatus(room.Status, active[room.RoomNumber])
	return room, nil
}

// Create adds a room.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Room, error) {
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	in.RoomType = strings.TrimSpace(in.RoomType)
	ctx, span := serviceTracer.Start(ctx, "RoomService.Create", trace.WithAttributes(attribute.String("room.number", in.RoomNumber)))
	defer span.End()

	switch {
	case in.RoomNumber == "":
		return nil, errorbank.BadRequest("room_number is required", errorbank.WithDetail("field", "room_number"))
	case in.RoomType == "":
		return nil, errorbank.BadRequest("room_type is required", errorbank.WithDetail("field", "room_type"))
	case in.Price.IsNegative():
		return nil, errorbank.BadRequest("price must not be negative", errorbank.WithDetail("field", "price"))
	}

	now := s.now().UTC()
	room := &entity.Room{
		RoomNumber:  in.RoomNumber,
		RoomType:    in.RoomType,
		Floor:       in.Floor,
		Price:       in.Price,
		Capacity:    in.Capacity,
		Area:        in.Area,
		HasWindow:   in.HasWindow,
		Status:      entity.RoomVacant,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Disabled {
		room.Status = entity.RoomDisabled
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errorbank.Conflict("room already exists", errorbank.WithDetail("room_number", in.RoomNumber))
		}
		return nil, s.fail(span, "create room", err)
	}
	return room, nil
}

// Update changes a room's descriptive fields, price, or disabled flag.
func (s *Service) Update(ctx context.Context, number string, in UpdateInput) (*entity.Room, error) {
	ctx, span := serviceTracer.Start(ctx, "RoomService.Update", trace.WithAttributes(attribute.String("room.number", number)))
	defer span.End()

	room, err := s.rooms.Get(ctx, number)
	if errors.Is(err, roomrepo.ErrNotFound) {
		return nil, notFound(number)
	}
	if err != nil {
		return nil, s.fail(span, "update room", err)
	}

	if in.RoomType != nil {
		if strings.TrimSpace(*in.RoomType) == "" {
			return nil, errorbank.BadRequest("room_type is required", errorbank.WithDetail("field", "room_type"))
		}
		room.RoomType = strings.TrimSpace(*in.RoomType)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, errorbank.BadRequest("price must not be negative", errorbank.WithDetail("field", "price"))
		}
		room.Price = *in.Price
	}
	if in.Floor != nil {
		room.Floor = *in.Floor
	}
	if in.Capacity != nil {
		room.Capacity = *in.Capacity
	}
	if in.Area != nil {
		room.Area = *in.Area
	}
	if in.HasWindow != nil {
		room.HasWindow = *in.HasWindow
	}
	if in.Description != nil {
		room.Description = *in.Description
	}
	if in.Disabled != nil {
		room.Status = entity.RoomVacant
		if *in.Disabled {
			room.Status = entity.RoomDisabled
		}
	}
	room.UpdatedAt = s.now().UTC()

	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, s.fail(span, "update room", err)
	}
	if s.orderCache != nil {
		if err := s.orderCache.ForgetRoom(ctx, number); err != nil {
			s.logger.Warn("order cache not cleared after room update", zap.String("room_number", number), zap.Error(err))
		}
	}
	return room, nil
}

// Delete removes a room that no reserved or checked-in order references.
func (s *Service) Delete(ctx context.Context, number string) error {
	ctx, span := serviceTracer.Start(ctx, "RoomService.Delete", trace.WithAttributes(attribute.String("room.number", number)))
	defer span.End()

	err := s.conns.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		active, err := s.orders.WithTx(tx).CountActiveForRoom(ctx, number)
		if err != nil {
			return err
		}
		if active > 0 {
			return errorbank.Conflict("room has active orders",
				errorbank.WithDetail("room_number", number),
				errorbank.WithDetail("active_orders", active))
		}
		err = s.rooms.WithTx(tx).Delete(ctx, number)
		switch {
		case errors.Is(err, roomrepo.ErrNotFound):
			return notFound(number)
		case database.IsForeignKeyViolation(err):
			return errorbank.Conflict("room is referenced by past orders", errorbank.WithDetail("room_number", number))
		}
		return err
	})
	if err != nil {
		return s.fail(span, "delete room", err)
	}
	return nil
}

// Occupancy counts the rooms with a reserved or checked-in stay covering today.
func (s *Service) Occupancy(ctx context.Context) (*Occupancy, error) {
	ctx, span := serviceTracer.Start(ctx, "RoomService.Occupancy")
	defer span.End()

	today := s.today()
	total, err := s.rooms.Count(ctx)
	if err != nil {
		return nil, s.fail(span, "compute occupancy", err)
	}
	active, err := s.orders.ActiveOn(ctx, today)
	if err != nil {
		return nil, s.fail(span, "compute occupancy", err)
	}

	out := &Occupancy{Date: today, TotalRooms: total, OccupiedRooms: len(active), Rate: decimal.Zero}
	if total > 0 {
		out.Rate = decimal.NewFromInt(int64(len(active))).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(total))).
			Round(2)
	}
	return out, nil
}

// deriveStatus maps a stored room status and today's active order status to a display status.
func deriveStatus(stored entity.RoomStatus, active entity.OrderStatus) entity.RoomStatus {
	switch {
	case stored == entity.RoomDisabled:
		return entity.RoomDisabled
	case active == entity.OrderCheckedIn:
		return entity.RoomOccupied
	case active == entity.OrderReserved:
		return entity.RoomReserved
	default:
		return entity.RoomVacant
	}
}

func (s *Service) today() string {
	return s.now().UTC().Format(entity.DateLayout)
}

func notFound(number string) error {
	return errorbank.NotFound("room not found", errorbank.WithDetail("room_number", number))
}

func (s *Service) fail(span trace.Span, action string, err error) error {
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		span.SetStatus(codes.Error, appErr.Message())
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	if s.logger != nil {
		applog.WithSpan(span, s.logger).Error("failed to "+action, zap.Error(err))
	}
	return errorbank.Internal("failed to "+action, errorbank.WithCause(err))
}
