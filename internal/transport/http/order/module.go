package order

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	authhttp "github.com/Additional-Code/innkeep/internal/transport/http/auth"
)

// Module wires HTTP order handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, guard *authhttp.Guard) {
		Register(e, h, guard)
	}),
)
