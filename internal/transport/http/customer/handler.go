package customer

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/innkeep/internal/dto"
	"github.com/Additional-Code/innkeep/internal/presentation/http/response"
	authsvc "github.com/Additional-Code/innkeep/internal/service/auth"
	customersvc "github.com/Additional-Code/innkeep/internal/service/customer"
	ordersvc "github.com/Additional-Code/innkeep/internal/service/order"
	authhttp "github.com/Additional-Code/innkeep/internal/transport/http/auth"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/innkeep/transport/http/customer")

// Handler exposes customer endpoints over HTTP.
type Handler struct {
	customers *customersvc.Service
	orders    *ordersvc.Service
}

// NewHandler constructs a customer Handler.
func NewHandler(customers *customersvc.Service, orders *ordersvc.Service) *Handler {
	return &Handler{customers: customers, orders: orders}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, guard *authhttp.Guard) {
	g := e.Group("/customers", guard.RequireSession)
	customers := guard.RequirePage(authsvc.PageCustomers)

	g.GET("", h.list, customers)
	g.POST("", h.create, customers)
	g.GET("/:id", h.get, customers)
	g.GET("/:id/orders", h.listOrders, guard.RequirePage(authsvc.PageCustomers, authsvc.PageOrders))
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "customers.list")
	defer span.End()

	customers, err := h.customers.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(customers).WithTotal(len(customers)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload customersvc.CreateInput
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "customers.create")
	defer span.End()

	customer, err := h.customers.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithMessage("customer created").WithData(customer).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	id, err := ordersvc.ParseCustomerID(c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "customers.get")
	defer span.End()

	customer, err := h.customers.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(customer).Build()
}

func (h *Handler) listOrders(c echo.Context) error {
	b := response.New(c)
	id, err := ordersvc.ParseCustomerID(c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "customers.orders")
	defer span.End()

	items, err := h.orders.ByCustomer(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrderDetails(items)).WithTotal(len(items)).Build()
}
