package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/innkeep/internal/cache"
	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/logger"
	"github.com/Additional-Code/innkeep/internal/messaging"
	"github.com/Additional-Code/innkeep/internal/migration"
	"github.com/Additional-Code/innkeep/internal/observability"
	repositorycustomer "github.com/Additional-Code/innkeep/internal/repository/customer"
	repositoryemployee "github.com/Additional-Code/innkeep/internal/repository/employee"
	repositoryevent "github.com/Additional-Code/innkeep/internal/repository/event"
	repositoryorder "github.com/Additional-Code/innkeep/internal/repository/order"
	repositoryroom "github.com/Additional-Code/innkeep/internal/repository/room"
	grpcserver "github.com/Additional-Code/innkeep/internal/server/grpc"
	httpserver "github.com/Additional-Code/innkeep/internal/server/http"
	serviceauth "github.com/Additional-Code/innkeep/internal/service/auth"
	servicecustomer "github.com/Additional-Code/innkeep/internal/service/customer"
	serviceorder "github.com/Additional-Code/innkeep/internal/service/order"
	serviceroom "github.com/Additional-Code/innkeep/internal/service/room"
	transporthttp "github.com/Additional-Code/innkeep/internal/transport/http"
	"github.com/Additional-Code/innkeep/internal/worker"
	workerorder "github.com/Additional-Code/innkeep/internal/worker/order"
)

// Infra provides configuration, logging, storage and the message bus.
var Infra = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
)

// Repositories provides every bun repository.
var Repositories = fx.Options(
	repositoryorder.Module,
	repositoryroom.Module,
	repositorycustomer.Module,
	repositoryemployee.Module,
	repositoryevent.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Infra,
	Repositories,
	serviceorder.Module,
	serviceroom.Module,
	servicecustomer.Module,
	serviceauth.Module,
	fx.Provide(func(orders *serviceorder.Service) serviceroom.OrderCache { return orders }),
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
// With the memory bus the audit worker runs in the same process.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
	worker.Embedded,
	workerorder.Module,
	fx.Invoke(serviceroom.RegisterGauges),
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Migrations exposes the schema migrator with only the infrastructure it needs.
var Migrations = fx.Options(
	Infra,
	migration.Module,
)

// Module is the default application wiring (HTTP and gRPC).
var Module = HTTP
