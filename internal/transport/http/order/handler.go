package order

import (
	"strconv"

	echo "github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cTHE0/restaurant/internal/dto"
	"github.com/cTHE0/restaurant/internal/entity"
	"github.com/cTHE0/restaurant/internal/presentation/http/response"
	"github.com/cTHE0/restaurant/internal/service/dashboard"
	service "github.com/cTHE0/restaurant/internal/service/order"
	"github.com/cTHE0/restaurant/internal/transport/http/middleware"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/cTHE0/restaurant/transport/http/order")

// Handler exposes admin order endpoints over HTTP.
type Handler struct {
	svc   *service.Service
	stats *dashboard.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, stats *dashboard.Service) *Handler {
	return &Handler{svc: svc, stats: stats}
}

// Register routes behind the admin gate.
func Register(e *echo.Echo, gate *middleware.AdminGate, h *Handler) {
	g := e.Group("/api/admin/orders", gate.Require())
	g.GET("", h.list)
	g.GET("/stats", h.statistics)
	g.GET("/:id", h.getByID)
	g.PUT("/:id/status", h.updateStatus)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	filter := c.QueryParam("status")
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list", trace.WithAttributes(attribute.String("order.filter", filter)))
	defer span.End()

	orders, err := h.svc.List(ctx, middleware.Identity(c), filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.Orders(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, middleware.Identity(c), id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.Order(order)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", payload.Status),
	))
	defer span.End()

	order, err := h.svc.TransitionStatus(ctx, middleware.Identity(c), id, entity.OrderStatus(payload.Status))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.OrderStatus(order)).Build()
}

func (h *Handler) statistics(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.stats")
	defer span.End()

	stats, err := h.stats.Stats(ctx, middleware.Identity(c))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.Stats(stats)).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithDetail("id", c.Param("id")))
	}
	return id, nil
}
