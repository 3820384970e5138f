package room

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/innkeep/internal/dto"
	"github.com/Additional-Code/innkeep/internal/presentation/http/response"
	authsvc "github.com/Additional-Code/innkeep/internal/service/auth"
	ordersvc "github.com/Additional-Code/innkeep/internal/service/order"
	roomsvc "github.com/Additional-Code/innkeep/internal/service/room"
	authhttp "github.com/Additional-Code/innkeep/internal/transport/http/auth"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/innkeep/transport/http/room")

// Handler exposes room endpoints over HTTP.
type Handler struct {
	rooms  *roomsvc.Service
	orders *ordersvc.Service
}

// NewHandler constructs a room Handler.
func NewHandler(rooms *roomsvc.Service, orders *ordersvc.Service) *Handler {
	return &Handler{rooms: rooms, orders: orders}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, guard *authhttp.Guard) {
	g := e.Group("/rooms", guard.RequireSession)
	rooms := guard.RequirePage(authsvc.PageRooms)

	g.GET("", h.list, rooms)
	g.POST("", h.create, rooms)
	g.GET("/occupancy", h.occupancy, guard.RequirePage(authsvc.PageRooms, authsvc.PageAnalytics))
	g.GET("/:number", h.get, rooms)
	g.PUT("/:number", h.update, rooms)
	g.DELETE("/:number", h.delete, rooms)
	g.GET("/:number/orders", h.listOrders, guard.RequirePage(authsvc.PageRooms, authsvc.PageOrders))
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "rooms.list")
	defer span.End()

	rooms, err := h.rooms.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(rooms).WithTotal(len(rooms)).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	number := c.Param("number")
	ctx, span := httpTracer.Start(c.Request().Context(), "rooms.get", trace.WithAttributes(attribute.String("room.number", number)))
	defer span.End()

	room, err := h.rooms.Get(ctx, number)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(room).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload roomsvc.CreateInput
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "rooms.create")
	defer span.End()

	room, err := h.rooms.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("room created").WithData(room).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	number := c.Param("number")

	var payload roomsvc.UpdateInput
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "rooms.update", trace.WithAttributes(attribute.String("room.number", number)))
	defer span.End()

	room, err := h.rooms.Update(ctx, number, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("room updated").WithData(room).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	number := c.Param("number")
	ctx, span := httpTracer.Start(c.Request().Context(), "rooms.delete", trace.WithAttributes(attribute.String("room.number", number)))
	defer span.End()

	if err := h.rooms.Delete(ctx, number); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("room deleted").Build()
}

func (h *Handler) occupancy(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "rooms.occupancy")
	defer span.End()

	occ, err := h.rooms.Occupancy(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(occ).Build()
}

func (h *Handler) listOrders(c echo.Context) error {
	b := response.New(c)
	number := c.Param("number")
	ctx, span := httpTracer.Start(c.Request().Context(), "rooms.orders", trace.WithAttributes(attribute.String("room.number", number)))
	defer span.End()

	items, err := h.orders.ByRoom(ctx, number, c.QueryParam("start_date"), c.QueryParam("end_date"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrderDetails(items)).WithTotal(len(items)).Build()
}
