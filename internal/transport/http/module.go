package http

import (
	"go.uber.org/fx"

	authtransport "github.com/Additional-Code/innkeep/internal/transport/http/auth"
	customertransport "github.com/Additional-Code/innkeep/internal/transport/http/customer"
	ordertransport "github.com/Additional-Code/innkeep/internal/transport/http/order"
	roomtransport "github.com/Additional-Code/innkeep/internal/transport/http/room"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	authtransport.Module,
	ordertransport.Module,
	roomtransport.Module,
	customertransport.Module,
)
