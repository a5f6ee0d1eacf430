package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/auth"
	"github.com/cTHE0/restaurant/internal/clock"
	"github.com/cTHE0/restaurant/internal/config"
	"github.com/cTHE0/restaurant/internal/database"
	"github.com/cTHE0/restaurant/internal/entity"
	"github.com/cTHE0/restaurant/internal/messaging"
	catalogrepo "github.com/cTHE0/restaurant/internal/repository/catalog"
	orderrepo "github.com/cTHE0/restaurant/internal/repository/order"
	service "github.com/cTHE0/restaurant/internal/service/order"
	"github.com/cTHE0/restaurant/internal/testutil"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

var admin = auth.Identity{ID: 1, Username: "admin"}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []messaging.Message
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, msg messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *recordingPublisher) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (p *recordingPublisher) Topic() string { return "restaurant.orders" }

func (p *recordingPublisher) events(t *testing.T) []messaging.OrderEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]messaging.OrderEvent, 0, len(p.messages))
	for _, msg := range p.messages {
		event, err := messaging.DecodeOrderEvent(msg)
		require.NoError(t, err)
		out = append(out, event)
	}
	return out
}

type fixture struct {
	conns     *database.Connections
	svc       *service.Service
	orders    *orderrepo.Repository
	catalog   *catalogrepo.Repository
	publisher *recordingPublisher
	now       time.Time
	pizza     *entity.MenuItem
	tiramisu  *entity.MenuItem
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	f := &fixture{
		conns:     testutil.NewDB(t),
		publisher: &recordingPublisher{},
		now:       time.Date(2026, 6, 12, 19, 0, 0, 0, time.UTC),
	}
	f.orders = orderrepo.NewRepository(f.conns)
	f.catalog = catalogrepo.NewRepository(f.conns)

	cfg := config.Config{Order: config.Order{PricingMode: config.PricingClient}}
	if mutate != nil {
		mutate(&cfg)
	}

	f.svc = service.NewService(service.Params{
		Orders:    f.orders,
		Catalog:   f.catalog,
		Config:    cfg,
		Clock:     clock.Func(func() time.Time { return f.now }),
		Logger:    zap.NewNop(),
		Publisher: f.publisher,
	})

	ctx := context.Background()
	mains := &entity.MenuCategory{Name: "Plats Principaux", SortOrder: 1}
	require.NoError(t, f.catalog.CreateCategory(ctx, mains))
	f.pizza = &entity.MenuItem{CategoryID: mains.ID, Name: "Pizza Margherita", Price: decimal.RequireFromString("12.50"), Available: true}
	require.NoError(t, f.catalog.CreateItem(ctx, f.pizza))
	f.tiramisu = &entity.MenuItem{CategoryID: mains.ID, Name: "Tiramisu", Price: decimal.RequireFromString("7.50"), Available: true}
	require.NoError(t, f.catalog.CreateItem(ctx, f.tiramisu))
	return f
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func (f *fixture) submitDefault(t *testing.T) *entity.Order {
	t.Helper()
	order, err := f.svc.Submit(context.Background(), service.SubmitInput{
		TableNumber: "5",
		Items: []service.LineInput{
			{MenuItemID: f.pizza.ID, Quantity: 2, UnitPrice: price("12.50")},
			{MenuItemID: f.tiramisu.ID, Quantity: 1, UnitPrice: price("7.00")},
		},
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) rowCounts(t *testing.T) (orders, lines int) {
	t.Helper()
	ctx := context.Background()
	orders, err := f.orders.Count(ctx)
	require.NoError(t, err)
	lines, err = f.orders.CountLines(ctx)
	require.NoError(t, err)
	return orders, lines
}

func TestSubmitComputesRoundedTotal(t *testing.T) {
	f := newFixture(t, nil)

	order := f.submitDefault(t)
	assert.NotZero(t, order.ID)
	assert.Equal(t, entity.StatusPending, order.Status)
	assert.Equal(t, "32.00", order.Total.StringFixed(2))
	assert.True(t, order.CreatedAt.Equal(f.now))
	assert.True(t, order.UpdatedAt.Equal(f.now))

	loaded, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Total.Equal(decimal.NewFromInt(32)))
	require.Len(t, loaded.Items, 2)

	rounded, err := f.svc.Submit(context.Background(), service.SubmitInput{
		TableNumber: "  7 ",
		Items: []service.LineInput{
			{MenuItemID: f.pizza.ID, Quantity: 3, UnitPrice: price("0.333")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "7", rounded.TableNumber)
	assert.Equal(t, "0.99", rounded.Total.StringFixed(2))
}

func TestSubmitRejectsInvalidInputWithoutWriting(t *testing.T) {
	f := newFixture(t, nil)
	one := price("1.00")

	cases := map[string]service.SubmitInput{
		"empty cart":     {TableNumber: "3"},
		"blank table":    {TableNumber: "   ", Items: []service.LineInput{{MenuItemID: f.pizza.ID, Quantity: 1, UnitPrice: one}}},
		"zero quantity":  {TableNumber: "3", Items: []service.LineInput{{MenuItemID: f.pizza.ID, Quantity: 1, UnitPrice: one}, {MenuItemID: f.tiramisu.ID, Quantity: 0, UnitPrice: one}}},
		"negative price": {TableNumber: "3", Items: []service.LineInput{{MenuItemID: f.pizza.ID, Quantity: 1, UnitPrice: price("-1")}}},
		"unknown item":   {TableNumber: "3", Items: []service.LineInput{{MenuItemID: 9999, Quantity: 1, UnitPrice: one}}},
		"missing price":  {TableNumber: "3", Items: []service.LineInput{{MenuItemID: f.pizza.ID, Quantity: 1, UnitPrice: one}, {MenuItemID: f.tiramisu.ID, Quantity: 1}}},
		"huge price":     {TableNumber: "3", Items: []service.LineInput{{MenuItemID: f.pizza.ID, Quantity: 1, UnitPrice: price("100000000")}}},
		"huge quantity":  {TableNumber: "3", Items: []service.LineInput{{MenuItemID: f.pizza.ID, Quantity: service.MaxQuantity + 1, UnitPrice: one}}},
		"huge total":     {TableNumber: "3", Items: []service.LineInput{{MenuItemID: f.pizza.ID, Quantity: 2, UnitPrice: price("99999999.99")}}},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			order, err := f.svc.Submit(context.Background(), in)
			assert.Nil(t, order)
			assert.True(t, errorbank.IsKind(err, errorbank.KindValidation), "got %v", err)

			orders, lines := f.rowCounts(t)
			assert.Zero(t, orders)
			assert.Zero(t, lines)
		})
	}
	assert.Empty(t, f.publisher.events(t))
}

func TestSubmitCatalogPricing(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.Order.PricingMode = config.PricingCatalog })

	order, err := f.svc.Submit(context.Background(), service.SubmitInput{
		TableNumber: "9",
		Items: []service.LineInput{
			{MenuItemID: f.pizza.ID, Quantity: 2, UnitPrice: price("0.01")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "25.00", order.Total.StringFixed(2))

	unpriced, err := f.svc.Submit(context.Background(), service.SubmitInput{
		TableNumber: "9",
		Items:       []service.LineInput{{MenuItemID: f.tiramisu.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "7.50", unpriced.Total.StringFixed(2))

	f.tiramisu.Available = false
	require.NoError(t, f.catalog.UpdateItem(context.Background(), f.tiramisu))
	_, err = f.svc.Submit(context.Background(), service.SubmitInput{
		TableNumber: "9",
		Items:       []service.LineInput{{MenuItemID: f.tiramisu.ID, Quantity: 1}},
	})
	assert.True(t, errorbank.IsKind(err, errorbank.KindValidation))
}

func TestSubmitSurfacesPersistenceError(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.conns.Close())

	_, err := f.svc.Submit(context.Background(), service.SubmitInput{
		TableNumber: "1",
		Items:       []service.LineInput{{MenuItemID: f.pizza.ID, Quantity: 1, UnitPrice: price("1")}},
	})
	assert.True(t, errorbank.IsKind(err, errorbank.KindPersistence), "got %v", err)
}

func TestSubmitPublishDoesNotFailRequest(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("broker down")

	order := f.submitDefault(t)
	assert.NotZero(t, order.ID)

	events := f.publisher.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, messaging.EventOrderCreated, events[0].Type)
	assert.Equal(t, order.ID, events[0].OrderID)
	assert.InDelta(t, 32.0, events[0].Total, 0.0001)
}

func TestTransitionStatusUpdatesTimestampOnly(t *testing.T) {
	f := newFixture(t, nil)
	order := f.submitDefault(t)

	// The clock has not moved; updated_at must still advance.
	updated, err := f.svc.TransitionStatus(context.Background(), admin, order.ID, entity.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPreparing, updated.Status)
	assert.True(t, updated.UpdatedAt.After(order.UpdatedAt))

	f.now = f.now.Add(time.Minute)
	again, err := f.svc.TransitionStatus(context.Background(), admin, order.ID, entity.StatusReady)
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.Equal(f.now))

	loaded, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReady, loaded.Status)
	assert.True(t, loaded.UpdatedAt.Equal(f.now))
	assert.True(t, loaded.CreatedAt.Equal(order.CreatedAt))
	assert.Equal(t, "32.00", loaded.Total.StringFixed(2))

	events := f.publisher.events(t)
	require.Len(t, events, 3)
	assert.Equal(t, messaging.EventOrderStatusChanged, events[2].Type)
	assert.Equal(t, "preparing", events[2].PreviousStatus)
	assert.Equal(t, "ready", events[2].Status)
}

func TestTransitionStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, nil)
	order := f.submitDefault(t)
	f.now = f.now.Add(time.Hour)

	_, err := f.svc.TransitionStatus(context.Background(), admin, order.ID, entity.OrderStatus("shipped"))
	assert.True(t, errorbank.IsKind(err, errorbank.KindInvalidStatus))

	loaded, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, loaded.Status)
	assert.True(t, loaded.UpdatedAt.Equal(order.UpdatedAt))

	// The status check runs before the lookup.
	_, err = f.svc.TransitionStatus(context.Background(), admin, 4242, entity.OrderStatus("shipped"))
	assert.True(t, errorbank.IsKind(err, errorbank.KindInvalidStatus))

	_, err = f.svc.TransitionStatus(context.Background(), admin, 4242, entity.StatusReady)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))

	_, err = f.svc.TransitionStatus(context.Background(), auth.Identity{}, order.ID, entity.StatusReady)
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnauthorized))
}

func TestTransitionStatusPermissiveAndStrict(t *testing.T) {
	ctx := context.Background()

	permissive := newFixture(t, nil)
	order := permissive.submitDefault(t)
	_, err := permissive.svc.TransitionStatus(ctx, admin, order.ID, entity.StatusDelivered)
	require.NoError(t, err)
	_, err = permissive.svc.TransitionStatus(ctx, admin, order.ID, entity.StatusPending)
	require.NoError(t, err)

	strict := newFixture(t, func(cfg *config.Config) { cfg.Order.StrictTransitions = true })
	order = strict.submitDefault(t)
	_, err = strict.svc.TransitionStatus(ctx, admin, order.ID, entity.StatusDelivered)
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))
	_, err = strict.svc.TransitionStatus(ctx, admin, order.ID, entity.StatusCancelled)
	require.NoError(t, err)
	_, err = strict.svc.TransitionStatus(ctx, admin, order.ID, entity.StatusPending)
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))
}

func TestListExpandsLinesWithPlaceholder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	first := f.submitDefault(t)
	f.now = f.now.Add(time.Minute)
	second, err := f.svc.Submit(ctx, service.SubmitInput{
		TableNumber: "2",
		Items:       []service.LineInput{{MenuItemID: f.tiramisu.ID, Quantity: 4, UnitPrice: price("7.50")}},
	})
	require.NoError(t, err)
	_, err = f.svc.TransitionStatus(ctx, admin, second.ID, entity.StatusReady)
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteItem(ctx, f.tiramisu.ID))

	all, err := f.svc.List(ctx, admin, service.FilterAll)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].Order.ID)
	assert.Equal(t, first.ID, all[1].Order.ID)

	lines := all[1].Lines
	require.Len(t, lines, 2)
	assert.Equal(t, "Pizza Margherita", lines[0].Name)
	assert.Equal(t, "25.00", lines[0].LineTotal.StringFixed(2))
	assert.Equal(t, service.RemovedItemName, lines[1].Name)
	assert.Equal(t, 1, lines[1].Quantity)

	ready, err := f.svc.List(ctx, admin, "ready")
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, second.ID, ready[0].Order.ID)
	assert.Equal(t, service.RemovedItemName, ready[0].Lines[0].Name)

	_, err = f.svc.List(ctx, admin, "shipped")
	assert.True(t, errorbank.IsKind(err, errorbank.KindInvalidStatus))

	detail, err := f.svc.Get(ctx, admin, first.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Lines, 2)

	_, err = f.svc.Get(ctx, admin, 4242)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, service.CanTransition(entity.StatusPending, entity.StatusPreparing))
	assert.True(t, service.CanTransition(entity.StatusReady, entity.StatusReady))
	assert.False(t, service.CanTransition(entity.StatusPending, entity.StatusReady))
	assert.False(t, service.CanTransition(entity.StatusDelivered, entity.StatusCancelled))
}
