package auth

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// Module wires the session guard and auth handlers.
var Module = fx.Options(
	fx.Provide(NewGuard, NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
