// Package menu serves the public menu and order submission endpoints.
package menu

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"
	echo "github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cTHE0/restaurant/internal/dto"
	"github.com/cTHE0/restaurant/internal/observability"
	"github.com/cTHE0/restaurant/internal/presentation/http/response"
	catalogsvc "github.com/cTHE0/restaurant/internal/service/catalog"
	ordersvc "github.com/cTHE0/restaurant/internal/service/order"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/cTHE0/restaurant/transport/http/menu")

// Handler exposes the diner-facing endpoints.
type Handler struct {
	catalog *catalogsvc.Service
	orders  *ordersvc.Service
}

// NewHandler constructs a menu Handler.
func NewHandler(catalog *catalogsvc.Service, orders *ordersvc.Service) *Handler {
	return &Handler{catalog: catalog, orders: orders}
}

// Register routes on the public client group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/client")
	g.GET("/menu", h.menu)
	g.POST("/order", h.submit)
}

func (h *Handler) menu(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "client.menu")
	defer span.End()

	timing := observability.StartTiming(ctx, "menu", "load public menu")
	categories, err := h.catalog.PublicMenu(ctx)
	timing.Stop()
	if err != nil {
		return b.WithError(err).Build()
	}

	data := dto.Menu(categories)
	if raw, err := json.Marshal(data); err == nil {
		etag := fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(raw))
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set("ETag", etag)
		if c.Request().Header.Get("If-None-Match") == etag {
			return c.NoContent(http.StatusNotModified)
		}
	}

	span.SetAttributes(attribute.Int("menu.categories", len(data)))
	return b.WithData(data).WithMeta("categories", len(data)).Build()
}

type orderLineRequest struct {
	ID       int64               `json:"id"`
	Quantity int                 `json:"quantity"`
	Price    decimal.NullDecimal `json:"price"`
}

type orderRequest struct {
	TableNumber string             `json:"table_number"`
	Items       []orderLineRequest `json:"items"`
}

func (h *Handler) submit(c echo.Context) error {
	b := response.New(c)

	var payload orderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid order payload", errorbank.WithCause(err))).Build()
	}

	in := ordersvc.SubmitInput{
		TableNumber: payload.TableNumber,
		Items:       make([]ordersvc.LineInput, 0, len(payload.Items)),
	}
	for _, line := range payload.Items {
		in.Items = append(in.Items, ordersvc.LineInput{
			MenuItemID: line.ID,
			Quantity:   line.Quantity,
			UnitPrice:  line.Price,
		})
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "client.submitOrder")
	span.SetAttributes(attribute.String("order.table", payload.TableNumber))
	defer span.End()

	order, err := h.orders.Submit(ctx, in)
	if err != nil {
		return b.WithError(err).Build()
	}

	// order_id is repeated at the top level for clients that read it there.
	return c.JSON(http.StatusCreated, submittedBody{
		Envelope: response.Envelope{Success: true, Data: dto.SubmittedOrder(order)},
		OrderID:  order.ID,
	})
}

type submittedBody struct {
	response.Envelope
	OrderID int64 `json:"order_id"`
}
