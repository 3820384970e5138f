package room

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	authhttp "github.com/Additional-Code/innkeep/internal/transport/http/auth"
)

// Module wires HTTP room handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, guard *authhttp.Guard) {
		Register(e, h, guard)
	}),
)
