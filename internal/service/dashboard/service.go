// Package dashboard computes the read-only order statistics shown to admins.
package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/auth"
	"github.com/cTHE0/restaurant/internal/clock"
	"github.com/cTHE0/restaurant/internal/entity"
	repo "github.com/cTHE0/restaurant/internal/repository/order"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/cTHE0/restaurant/service/dashboard")

// Module provides the dashboard service to Fx.
var Module = fx.Provide(NewService)

// Stats summarises orders for the admin dashboard.
type Stats struct {
	Total        int
	ByStatus     map[entity.OrderStatus]int
	Today        int
	Pending      int
	TotalRevenue decimal.Decimal
}

// Service answers dashboard queries.
type Service struct {
	orders *repo.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(orders *repo.Repository, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{orders: orders, clock: clk, logger: logger}
}

// Stats returns order counts and revenue. Every status appears in ByStatus;
// Today covers the current UTC day; cancelled orders earn no revenue.
func (s *Service) Stats(ctx context.Context, admin auth.Identity) (Stats, error) {
	if err := auth.Require(admin); err != nil {
		return Stats{}, err
	}
	ctx, span := serviceTracer.Start(ctx, "DashboardService.Stats")
	defer span.End()

	fail := func(err error) (Stats, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stats query failed")
		s.logger.Error("dashboard stats failed", zap.Error(err))
		return Stats{}, errorbank.Persistence("failed to compute statistics", errorbank.WithCause(err))
	}

	total, err := s.orders.Count(ctx)
	if err != nil {
		return fail(err)
	}

	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return fail(err)
	}
	byStatus := make(map[entity.OrderStatus]int, len(entity.OrderStatuses))
	for _, status := range entity.OrderStatuses {
		byStatus[status] = counts[status]
	}

	start := clock.StartOfDay(s.clock.Now())
	today, err := s.orders.CountCreatedBetween(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return fail(err)
	}

	revenue, err := s.orders.RevenueExcluding(ctx, entity.StatusCancelled)
	if err != nil {
		return fail(err)
	}

	return Stats{
		Total:        total,
		ByStatus:     byStatus,
		Today:        today,
		Pending:      byStatus[entity.StatusPending],
		TotalRevenue: revenue.Round(2),
	}, nil
}
