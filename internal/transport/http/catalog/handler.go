// Package catalog serves the admin endpoints for menu categories and items.
package catalog

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cTHE0/restaurant/internal/dto"
	"github.com/cTHE0/restaurant/internal/presentation/http/response"
	service "github.com/cTHE0/restaurant/internal/service/catalog"
	"github.com/cTHE0/restaurant/internal/transport/http/middleware"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/cTHE0/restaurant/transport/http/catalog")

// Handler exposes category and item management.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes behind the admin gate.
func Register(e *echo.Echo, gate *middleware.AdminGate, h *Handler) {
	g := e.Group("/api/admin", gate.Require())
	g.GET("/categories", h.listCategories)
	g.POST("/categories", h.createCategory)
	g.PUT("/categories/:id", h.updateCategory)
	g.DELETE("/categories/:id", h.deleteCategory)
	g.GET("/items", h.listItems)
	g.POST("/items", h.createItem)
	g.PUT("/items/:id", h.updateItem)
	g.DELETE("/items/:id", h.deleteItem)
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"order"`
}

func (r categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{Name: r.Name, Description: r.Description, SortOrder: r.SortOrder}
}

type itemRequest struct {
	CategoryID  *int64           `json:"category_id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url"`
	Available   *bool            `json:"available"`
	SortOrder   *int             `json:"order"`
}

func (r itemRequest) input() service.ItemInput {
	return service.ItemInput{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		Available:   r.Available,
		SortOrder:   r.SortOrder,
	}
}

func (h *Handler) listCategories(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "categories.list")
	defer span.End()

	categories, err := h.svc.ListCategories(ctx, middleware.Identity(c))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Categories(categories)).Build()
}

func (h *Handler) createCategory(c echo.Context) error {
	b := response.New(c)

	var payload categoryRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid category payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.create")
	defer span.End()

	category, err := h.svc.CreateCategory(ctx, middleware.Identity(c), payload.input())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.Category(category)).Build()
}

func (h *Handler) updateCategory(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload categoryRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid category payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.update", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	category, err := h.svc.UpdateCategory(ctx, middleware.Identity(c), id, payload.input())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Category(category)).Build()
}

func (h *Handler) deleteCategory(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.delete", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	if err := h.svc.DeleteCategory(ctx, middleware.Identity(c), id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.CreatedResponse{ID: id}).Build()
}

func (h *Handler) listItems(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "items.list")
	defer span.End()

	items, err := h.svc.ListItems(ctx, middleware.Identity(c))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Items(items)).Build()
}

func (h *Handler) createItem(c echo.Context) error {
	b := response.New(c)

	var payload itemRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid item payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "items.create")
	defer span.End()

	item, err := h.svc.CreateItem(ctx, middleware.Identity(c), payload.input())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.Item(item)).Build()
}

func (h *Handler) updateItem(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload itemRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid item payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "items.update", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	item, err := h.svc.UpdateItem(ctx, middleware.Identity(c), id, payload.input())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Item(item)).Build()
}

func (h *Handler) deleteItem(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "items.delete", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	if err := h.svc.DeleteItem(ctx, middleware.Identity(c), id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.CreatedResponse{ID: id}).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithDetail("id", c.Param("id")))
	}
	return id, nil
}
