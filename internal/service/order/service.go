package order

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/auth"
	"github.com/cTHE0/restaurant/internal/clock"
	"github.com/cTHE0/restaurant/internal/config"
	"github.com/cTHE0/restaurant/internal/entity"
	"github.com/cTHE0/restaurant/internal/messaging"
	catalogrepo "github.com/cTHE0/restaurant/internal/repository/catalog"
	repo "github.com/cTHE0/restaurant/internal/repository/order"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

const instrumentationName = "github.com/cTHE0/restaurant/service/order"

var serviceTracer = otel.Tracer(instrumentationName)

// RemovedItemName labels lines whose menu item no longer exists.
const RemovedItemName = "item removed"

// FilterAll selects orders of every status.
const FilterAll = "all"

// MaxAmount is the largest unit price or order total a DECIMAL(10,2) column holds.
var MaxAmount = decimal.RequireFromString("99999999.99")

// MaxQuantity is the largest quantity an INT column holds.
const MaxQuantity = math.MaxInt32

// LineInput is one requested line of a submission. UnitPrice is invalid when
// the client sent no price, which only catalog pricing accepts.
type LineInput struct {
	MenuItemID int64
	Quantity   int
	UnitPrice  decimal.NullDecimal
}

// SubmitInput is a diner's order request.
type SubmitInput struct {
	TableNumber string
	Items       []LineInput
}

// Line is an order line expanded for display.
type Line struct {
	MenuItemID int64
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	LineTotal  decimal.Decimal
}

// Detail is an order together with its expanded lines.
type Detail struct {
	Order *entity.Order
	Lines []Line
}

// Service implements order submission and the order lifecycle.
type Service struct {
	orders      *repo.Repository
	menu        *catalogrepo.Repository
	clock       clock.Clock
	logger      *zap.Logger
	publisher   messaging.Client
	pricing     string
	strict      bool
	submitted   metric.Int64Counter
	transitions metric.Int64Counter
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders    *repo.Repository
	Catalog   *catalogrepo.Repository
	Config    config.Config
	Clock     clock.Clock
	Logger    *zap.Logger
	Publisher messaging.Client `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.System
	}

	s := &Service{
		orders:    p.Orders,
		menu:      p.Catalog,
		clock:     clk,
		logger:    logger,
		publisher: p.Publisher,
		pricing:   p.Config.Order.PricingMode,
		strict:    p.Config.Order.StrictTransitions,
	}

	meter := otel.Meter(instrumentationName)
	var err error
	if s.submitted, err = meter.Int64Counter("orders.submitted", metric.WithDescription("Orders accepted from diners")); err != nil {
		logger.Warn("orders.submitted counter unavailable", zap.Error(err))
		s.submitted = noop.Int64Counter{}
	}
	if s.transitions, err = meter.Int64Counter("orders.status_transitions", metric.WithDescription("Order status changes applied by admins")); err != nil {
		logger.Warn("orders.status_transitions counter unavailable", zap.Error(err))
		s.transitions = noop.Int64Counter{}
	}
	return s
}

// Submit validates and persists a new pending order with all of its lines.
// Nothing is written when validation fails.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*entity.Order, error) {
	table := strings.TrimSpace(in.TableNumber)
	if table == "" {
		return nil, errorbank.Validation("table number is required", errorbank.WithDetail("field", "table_number"))
	}
	if len(in.Items) == 0 {
		return nil, errorbank.Validation("empty cart", errorbank.WithDetail("field", "items"))
	}

	ids := make([]int64, 0, len(in.Items))
	seen := make(map[int64]struct{}, len(in.Items))
	for i, line := range in.Items {
		switch {
		case line.MenuItemID <= 0:
			return nil, errorbank.Validation("menu item id is required", errorbank.WithDetail("line", i))
		case line.Quantity < 1:
			return nil, errorbank.Validation("quantity must be at least 1", errorbank.WithDetail("line", i))
		case line.Quantity > MaxQuantity:
			return nil, errorbank.Validation("quantity is too large", errorbank.WithDetail("line", i))
		case !line.UnitPrice.Valid && s.pricing != config.PricingCatalog:
			return nil, errorbank.Validation("unit price is required", errorbank.WithDetail("line", i))
		case line.UnitPrice.Valid && line.UnitPrice.Decimal.IsNegative():
			return nil, errorbank.Validation("unit price must not be negative", errorbank.WithDetail("line", i))
		case line.UnitPrice.Valid && line.UnitPrice.Decimal.Round(2).GreaterThan(MaxAmount):
			return nil, errorbank.Validation("unit price is too large", errorbank.WithDetail("line", i))
		}
		if _, ok := seen[line.MenuItemID]; !ok {
			seen[line.MenuItemID] = struct{}{}
			ids = append(ids, line.MenuItemID)
		}
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Submit", trace.WithAttributes(
		attribute.String("order.table", table),
		attribute.Int("order.lines", len(in.Items)),
	))
	defer span.End()

	known, err := s.menu.ItemsByID(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "menu lookup failed")
		return nil, errorbank.Persistence("failed to look up menu items", errorbank.WithCause(err))
	}

	order := &entity.Order{TableNumber: table, Status: entity.StatusPending}
	total := decimal.Zero
	for i, line := range in.Items {
		item, ok := known[line.MenuItemID]
		if !ok {
			return nil, errorbank.Validation("unknown menu item",
				errorbank.WithDetail("line", i),
				errorbank.WithDetail("menu_item_id", line.MenuItemID))
		}
		price := line.UnitPrice.Decimal
		if s.pricing == config.PricingCatalog {
			if !item.Available {
				return nil, errorbank.Validation("menu item is not available",
					errorbank.WithDetail("line", i),
					errorbank.WithDetail("menu_item_id", line.MenuItemID))
			}
			price = item.Price
		}
		oi := &entity.OrderItem{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  price.Round(2),
		}
		total = total.Add(oi.LineTotal())
		order.Items = append(order.Items, oi)
	}
	order.Total = total.Round(2)
	if order.Total.GreaterThan(MaxAmount) {
		return nil, errorbank.Validation("order total is too large", errorbank.WithDetail("field", "items"))
	}

	now := s.now()
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := s.orders.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("order submission failed", zap.String("table", table), zap.Error(err))
		return nil, errorbank.Persistence("failed to save order", errorbank.WithCause(err))
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID))
	s.submitted.Add(ctx, 1)
	s.publish(ctx, messaging.EventOrderCreated, order, "")

	return order, nil
}

// TransitionStatus moves an order to status. The status is validated before
// the order is read; total is never modified.
func (s *Service) TransitionStatus(ctx context.Context, admin auth.Identity, id int64, status entity.OrderStatus) (*entity.Order, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, errorbank.InvalidStatus("invalid status", errorbank.WithDetail("status", string(status)))
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.TransitionStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load order")
	}

	previous := order.Status
	if s.strict && !CanTransition(previous, status) {
		return nil, errorbank.Conflict("status transition not allowed",
			errorbank.WithDetail("from", string(previous)),
			errorbank.WithDetail("to", string(status)))
	}

	updatedAt := s.now()
	if !updatedAt.After(order.UpdatedAt) {
		updatedAt = order.UpdatedAt.Add(time.Microsecond)
	}

	if err := s.orders.UpdateStatus(ctx, id, status, updatedAt); err != nil {
		return nil, s.translate(span, err, "failed to update order status")
	}
	order.Status = status
	order.UpdatedAt = updatedAt

	s.logger.Info("order status changed",
		zap.Int64("order_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("admin", admin.Username),
	)
	s.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	s.publish(ctx, messaging.EventOrderStatusChanged, order, previous)

	return order, nil
}

// Get returns one order with its expanded lines.
func (s *Service) Get(ctx context.Context, admin auth.Identity, id int64) (*Detail, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load order")
	}
	details, err := s.expand(ctx, []*entity.Order{order})
	if err != nil {
		return nil, s.translate(span, err, "failed to resolve order lines")
	}
	return details[0], nil
}

// List returns orders newest first. filter is empty, "all" or one status.
func (s *Service) List(ctx context.Context, admin auth.Identity, filter string) ([]*Detail, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}

	var status entity.OrderStatus
	if filter = strings.TrimSpace(filter); filter != "" && filter != FilterAll {
		status = entity.OrderStatus(filter)
		if !status.Valid() {
			return nil, errorbank.InvalidStatus("invalid status filter", errorbank.WithDetail("status", filter))
		}
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(attribute.String("order.filter", filter)))
	defer span.End()

	orders, err := s.orders.List(ctx, status)
	if err != nil {
		return nil, s.translate(span, err, "failed to list orders")
	}
	details, err := s.expand(ctx, orders)
	if err != nil {
		return nil, s.translate(span, err, "failed to resolve order lines")
	}
	return details, nil
}

// expand resolves line names with one live catalog lookup.
func (s *Service) expand(ctx context.Context, orders []*entity.Order) ([]*Detail, error) {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, order := range orders {
		for _, item := range order.Items {
			if _, ok := seen[item.MenuItemID]; !ok {
				seen[item.MenuItemID] = struct{}{}
				ids = append(ids, item.MenuItemID)
			}
		}
	}

	names := map[int64]*entity.MenuItem{}
	if len(ids) > 0 {
		var err error
		if names, err = s.menu.ItemsByID(ctx, ids); err != nil {
			return nil, err
		}
	}

	details := make([]*Detail, 0, len(orders))
	for _, order := range orders {
		d := &Detail{Order: order, Lines: make([]Line, 0, len(order.Items))}
		for _, item := range order.Items {
			name := RemovedItemName
			if mi, ok := names[item.MenuItemID]; ok {
				name = mi.Name
			}
			d.Lines = append(d.Lines, Line{
				MenuItemID: item.MenuItemID,
				Name:       name,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				LineTotal:  item.LineTotal().Round(2),
			})
		}
		details = append(details, d)
	}
	return details, nil
}

func (s *Service) publish(ctx context.Context, eventType string, order *entity.Order, previous entity.OrderStatus) {
	if s.publisher == nil {
		return
	}
	event := messaging.OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		TableNumber:    order.TableNumber,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		Total:          order.Total.InexactFloat64(),
		OccurredAt:     order.UpdatedAt,
	}
	msg, err := event.Message()
	if err != nil {
		s.logger.Error("encode order event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Warn("publish order event", zap.String("type", eventType), zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

// now truncates to the microsecond precision every supported database keeps.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func (s *Service) translate(span trace.Span, err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("order not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.logger.Error(msg, zap.Error(err))
	return errorbank.Persistence(msg, errorbank.WithCause(err))
}
