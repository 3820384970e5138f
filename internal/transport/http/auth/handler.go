package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/innkeep/internal/presentation/http/response"
	authsvc "github.com/Additional-Code/innkeep/internal/service/auth"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/innkeep/transport/http/auth")

// Handler exposes login, logout and the current session.
type Handler struct {
	svc   *authsvc.Service
	guard *Guard
}

// NewHandler constructs an auth Handler.
func NewHandler(svc *authsvc.Service, guard *Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/auth")
	g.POST("/login", h.login)
	g.POST("/logout", h.logout, h.guard.RequireSession)
	g.GET("/me", h.me, h.guard.RequireSession)
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Username == "" || payload.Password == "" {
		return b.WithError(errorbank.BadRequest("username and password are required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.login")
	defer span.End()

	session, err := h.svc.Login(ctx, payload.Username, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}

	c.SetCookie(&http.Cookie{
		Name:     h.guard.cookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return b.WithMessage("logged in").WithData(map[string]any{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"principal":  session.Principal,
		"pages":      h.svc.PagesFor(session.Principal),
	}).Build()
}

func (h *Handler) logout(c echo.Context) error {
	b := response.New(c)
	p, _ := Principal(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.logout")
	defer span.End()

	if err := h.svc.Logout(ctx, p); err != nil {
		return b.WithError(err).Build()
	}
	c.SetCookie(&http.Cookie{
		Name:     h.guard.cookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
	return b.WithMessage("logged out").Build()
}

func (h *Handler) me(c echo.Context) error {
	p, _ := Principal(c)
	return response.New(c).WithData(map[string]any{
		"principal": p,
		"pages":     h.svc.PagesFor(p),
	}).Build()
}
