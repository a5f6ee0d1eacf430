package app

import (
	"context"

	"go.uber.org/fx"

	"github.com/cTHE0/restaurant/internal/auth"
	"github.com/cTHE0/restaurant/internal/cache"
	"github.com/cTHE0/restaurant/internal/clock"
	"github.com/cTHE0/restaurant/internal/config"
	"github.com/cTHE0/restaurant/internal/database"
	"github.com/cTHE0/restaurant/internal/logger"
	"github.com/cTHE0/restaurant/internal/messaging"
	"github.com/cTHE0/restaurant/internal/migration"
	"github.com/cTHE0/restaurant/internal/observability"
	repositoryadmin "github.com/cTHE0/restaurant/internal/repository/admin"
	repositorycatalog "github.com/cTHE0/restaurant/internal/repository/catalog"
	repositoryorder "github.com/cTHE0/restaurant/internal/repository/order"
	grpcserver "github.com/cTHE0/restaurant/internal/server/grpc"
	"github.com/cTHE0/restaurant/internal/seeder"
	httpserver "github.com/cTHE0/restaurant/internal/server/http"
	servicecatalog "github.com/cTHE0/restaurant/internal/service/catalog"
	servicedashboard "github.com/cTHE0/restaurant/internal/service/dashboard"
	serviceorder "github.com/cTHE0/restaurant/internal/service/order"
	servicesession "github.com/cTHE0/restaurant/internal/service/session"
	"github.com/cTHE0/restaurant/internal/storage"
	transporthttp "github.com/cTHE0/restaurant/internal/transport/http"
	"github.com/cTHE0/restaurant/internal/worker"
	workerorder "github.com/cTHE0/restaurant/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	clock.Module,
	logger.Module,
	observability.Module,
	database.Module,
	cache.Module,
	messaging.Module,
	auth.Module,
	repositoryadmin.Module,
	repositorycatalog.Module,
	repositoryorder.Module,
	servicecatalog.Module,
	servicedashboard.Module,
	serviceorder.Module,
	servicesession.Module,
)

// HTTP wires the HTTP and gRPC transports on top of the core modules. The
// gRPC listener only starts when enabled in config.
var HTTP = fx.Options(
	Core,
	storage.Module,
	httpserver.Module,
	transporthttp.Module,
	grpcserver.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Bootstrap migrates the schema and loads seed data. Place it ahead of HTTP
// so its start hook runs before the listeners open.
var Bootstrap = fx.Options(
	migration.Module,
	seeder.Module,
	fx.Invoke(func(lc fx.Lifecycle, mig *migration.Migrator, seed *seeder.Seeder) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				return seed.Run(ctx)
			},
		})
	}),
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
