package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/auth"
	"github.com/cTHE0/restaurant/internal/clock"
	"github.com/cTHE0/restaurant/internal/entity"
	repo "github.com/cTHE0/restaurant/internal/repository/order"
	"github.com/cTHE0/restaurant/internal/service/dashboard"
	"github.com/cTHE0/restaurant/internal/testutil"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

var (
	admin = auth.Identity{ID: 1, Username: "admin"}
	now   = time.Date(2026, 7, 3, 15, 30, 0, 0, time.UTC)
)

func seed(t *testing.T, orders *repo.Repository, status entity.OrderStatus, total string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, orders.Create(context.Background(), &entity.Order{
		TableNumber: "1",
		Status:      status,
		Total:       decimal.RequireFromString(total),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		Items: []*entity.OrderItem{
			{MenuItemID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString(total)},
		},
	}))
}

func TestStatsWithoutOrders(t *testing.T) {
	orders := repo.NewRepository(testutil.NewDB(t))
	svc := dashboard.NewService(orders, clock.Fixed(now), zap.NewNop())

	stats, err := svc.Stats(context.Background(), admin)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.Today)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.Len(t, stats.ByStatus, len(entity.OrderStatuses))
	for _, status := range entity.OrderStatuses {
		assert.Zero(t, stats.ByStatus[status])
	}
}

func TestStatsCountsAndRevenue(t *testing.T) {
	orders := repo.NewRepository(testutil.NewDB(t))
	svc := dashboard.NewService(orders, clock.Fixed(now), zap.NewNop())

	seed(t, orders, entity.StatusPending, "32.00", now.Add(-time.Hour))
	seed(t, orders, entity.StatusDelivered, "10.10", now.Add(-2*time.Hour))
	seed(t, orders, entity.StatusCancelled, "99.00", now.Add(-3*time.Hour))
	seed(t, orders, entity.StatusPending, "5.25", now.AddDate(0, 0, -1))
	seed(t, orders, entity.StatusReady, "1.00", clock.StartOfDay(now))

	stats, err := svc.Stats(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.Today)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 2, stats.ByStatus[entity.StatusPending])
	assert.Equal(t, 1, stats.ByStatus[entity.StatusCancelled])
	assert.Equal(t, 0, stats.ByStatus[entity.StatusPreparing])
	assert.Equal(t, "48.35", stats.TotalRevenue.StringFixed(2))
}

func TestStatsRevenueZeroWhenOnlyCancelled(t *testing.T) {
	orders := repo.NewRepository(testutil.NewDB(t))
	svc := dashboard.NewService(orders, clock.Fixed(now), zap.NewNop())
	seed(t, orders, entity.StatusCancelled, "20.00", now)

	stats, err := svc.Stats(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.True(t, stats.TotalRevenue.IsZero())
}

func TestStatsRequiresAdmin(t *testing.T) {
	svc := dashboard.NewService(repo.NewRepository(testutil.NewDB(t)), clock.Fixed(now), zap.NewNop())
	_, err := svc.Stats(context.Background(), auth.Identity{})
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnauthorized))
}
