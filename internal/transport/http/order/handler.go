package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/innkeep/internal/dto"
	"github.com/Additional-Code/innkeep/internal/presentation/http/response"
	authsvc "github.com/Additional-Code/innkeep/internal/service/auth"
	service "github.com/Additional-Code/innkeep/internal/service/order"
	authhttp "github.com/Additional-Code/innkeep/internal/transport/http/auth"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/innkeep/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. Every route needs a session.
func Register(e *echo.Echo, h *Handler, guard *authhttp.Guard) {
	g := e.Group("/orders", guard.RequireSession)
	orders := guard.RequirePage(authsvc.PageOrders)
	reports := guard.RequirePage(authsvc.PageOrders, authsvc.PageAnalytics)

	g.GET("", h.list, orders)
	g.POST("", h.create, orders)
	g.GET("/export", h.export, orders)
	g.GET("/availability", h.availability, orders)
	g.GET("/statistics", h.statistics, reports)
	g.GET("/revenue", h.revenue, reports)
	g.GET("/by-date/:date", h.byDate, orders)
	g.GET("/by-status/:status", h.byStatus, orders)
	g.GET("/:id", h.getByID, orders)
	g.PUT("/:id", h.update, orders)
	g.DELETE("/:id", h.delete, orders)
	g.POST("/:id/payments", h.pay, orders)
	g.GET("/:id/events", h.events, orders)
}

type createRequest struct {
	CustomerID      int64            `json:"customer_id"`
	RoomNumber      string           `json:"room_number"`
	CheckInDate     string           `json:"check_in_date"`
	CheckOutDate    string           `json:"check_out_date"`
	EmployeeID      string           `json:"employee_id"`
	TotalAmount     *decimal.Decimal `json:"total_amount"`
	PaidAmount      *decimal.Decimal `json:"paid_amount"`
	OrderStatus     string           `json:"order_status"`
	PaymentStatus   string           `json:"payment_status"`
	SpecialRequests string           `json:"special_requests"`
}

type updateRequest struct {
	CustomerID      *int64           `json:"customer_id"`
	RoomNumber      *string          `json:"room_number"`
	CheckInDate     *string          `json:"check_in_date"`
	CheckOutDate    *string          `json:"check_out_date"`
	EmployeeID      *string          `json:"employee_id"`
	TotalAmount     *decimal.Decimal `json:"total_amount"`
	PaidAmount      *decimal.Decimal `json:"paid_amount"`
	OrderStatus     *string          `json:"order_status"`
	PaymentStatus   *string          `json:"payment_status"`
	SpecialRequests *string          `json:"special_requests"`
}

func listQuery(c echo.Context) service.ListQuery {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	return service.ListQuery{
		Search:        c.QueryParam("search"),
		OrderStatus:   c.QueryParam("order_status"),
		PaymentStatus: c.QueryParam("payment_status"),
		StartDate:     c.QueryParam("start_date"),
		EndDate:       c.QueryParam("end_date"),
		Page:          page,
	}
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	page, err := h.svc.List(ctx, listQuery(c))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrderDetails(page.Items)).WithTotal(page.Total).WithPage(page.Page).Build()
}

func (h *Handler) export(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.export")
	defer span.End()

	items, err := h.svc.Export(ctx, listQuery(c))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrderDetails(items)).WithTotal(len(items)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrderDetail(*order)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload createRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.EmployeeID == "" {
		if p, ok := authhttp.Principal(c); ok && !p.Admin {
			payload.EmployeeID = p.Subject
		}
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	span.SetAttributes(attribute.String("room.number", payload.RoomNumber))
	defer span.End()

	order, err := h.svc.Create(ctx, service.CreateInput{
		CustomerID:      payload.CustomerID,
		RoomNumber:      payload.RoomNumber,
		CheckInDate:     payload.CheckInDate,
		CheckOutDate:    payload.CheckOutDate,
		EmployeeID:      payload.EmployeeID,
		TotalAmount:     payload.TotalAmount,
		PaidAmount:      payload.PaidAmount,
		OrderStatus:     payload.OrderStatus,
		PaymentStatus:   payload.PaymentStatus,
		SpecialRequests: payload.SpecialRequests,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("order created").WithData(dto.FromOrderDetail(*order)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload updateRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Update(ctx, id, service.UpdateInput{
		CustomerID:      payload.CustomerID,
		RoomNumber:      payload.RoomNumber,
		CheckInDate:     payload.CheckInDate,
		CheckOutDate:    payload.CheckOutDate,
		EmployeeID:      payload.EmployeeID,
		TotalAmount:     payload.TotalAmount,
		PaidAmount:      payload.PaidAmount,
		OrderStatus:     payload.OrderStatus,
		PaymentStatus:   payload.PaymentStatus,
		SpecialRequests: payload.SpecialRequests,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("order updated").WithData(dto.FromOrderDetail(*order)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("order deleted").Build()
}

func (h *Handler) availability(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.availability")
	defer span.End()

	avail, err := h.svc.CheckAvailability(ctx, service.AvailabilityQuery{
		RoomNumber:     c.QueryParam("room_number"),
		CheckIn:        c.QueryParam("check_in"),
		CheckOut:       c.QueryParam("check_out"),
		ExcludeOrderID: c.QueryParam("exclude_order_id"),
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(avail).WithMessage(avail.Reason).Build()
}

func (h *Handler) pay(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload struct {
		PaymentAmount decimal.Decimal `json:"payment_amount"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.pay", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.ApplyPayment(ctx, id, payload.PaymentAmount)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("payment applied").WithData(dto.PaymentResponse{
		OrderID:       order.OrderID,
		PaidAmount:    dto.Money(order.PaidAmount),
		TotalAmount:   dto.Money(order.TotalAmount),
		PaymentStatus: string(order.PaymentStatus),
	}).Build()
}

func (h *Handler) statistics(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.statistics")
	defer span.End()

	stats, err := h.svc.Statistics(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(stats).Build()
}

func (h *Handler) revenue(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.revenue")
	defer span.End()

	rev, err := h.svc.Revenue(ctx, c.QueryParam("start_date"), c.QueryParam("end_date"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(rev).Build()
}

func (h *Handler) byDate(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.byDate")
	defer span.End()

	items, err := h.svc.ByDate(ctx, c.Param("date"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrderDetails(items)).WithTotal(len(items)).Build()
}

func (h *Handler) byStatus(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.byStatus")
	defer span.End()

	items, err := h.svc.ByStatus(ctx, c.Param("status"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrderDetails(items)).WithTotal(len(items)).Build()
}

func (h *Handler) events(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.events", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	events, err := h.svc.Events(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(events).WithTotal(len(events)).Build()
}
