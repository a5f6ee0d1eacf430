package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/auth"
	"github.com/cTHE0/restaurant/internal/cache"
	"github.com/cTHE0/restaurant/internal/config"
	"github.com/cTHE0/restaurant/internal/entity"
	repo "github.com/cTHE0/restaurant/internal/repository/catalog"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/cTHE0/restaurant/service/catalog")

// PublicMenuCacheKey prefixes the cached public menu. The full key carries the
// generation stored under PublicMenuVersionKey, so a write makes every menu
// rendered before it unreachable, even one stored after the write.
const PublicMenuCacheKey = "menu:public"

// PublicMenuVersionKey holds the current menu generation.
const PublicMenuVersionKey = "menu:public:version"

// CategoryInput carries category fields. Nil fields are left unchanged on
// update.
type CategoryInput struct {
	Name        *string
	Description *string
	SortOrder   *int
}

// ItemInput carries menu item fields. Nil fields are left unchanged on update.
type ItemInput struct {
	CategoryID  *int64
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
	Available   *bool
	SortOrder   *int
}

// Service manages menu categories and items.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store `optional:"true"`
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   logger,
	}
}

// PublicMenu returns categories that hold at least one available item, each
// with only its available items. Both levels are ordered by rank then id.
func (s *Service) PublicMenu(ctx context.Context) ([]*entity.MenuCategory, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.PublicMenu")
	defer span.End()

	key := s.menuKey(ctx)
	if menu, err := s.menuFromCache(ctx, key); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return menu, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("menu cache read failed", zap.Error(err))
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, s.translate(span, err, "failed to load categories")
	}
	items, err := s.repo.ListAvailableItems(ctx)
	if err != nil {
		return nil, s.translate(span, err, "failed to load menu items")
	}

	byCategory := make(map[int64][]*entity.MenuItem, len(categories))
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	menu := make([]*entity.MenuCategory, 0, len(categories))
	for _, category := range categories {
		available := byCategory[category.ID]
		if len(available) == 0 {
			continue
		}
		category.Items = available
		menu = append(menu, category)
	}

	if err := s.storeMenu(ctx, key, menu); err != nil {
		s.logger.Warn("menu cache write failed", zap.Error(err))
	}
	return menu, nil
}

// ListCategories returns every category in display order.
func (s *Service) ListCategories(ctx context.Context, admin auth.Identity) ([]*entity.MenuCategory, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.ListCategories")
	defer span.End()

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, s.translate(span, err, "failed to load categories")
	}
	return categories, nil
}

// CreateCategory adds a category. Name is required.
func (s *Service) CreateCategory(ctx context.Context, admin auth.Identity, in CategoryInput) (*entity.MenuCategory, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}
	category := &entity.MenuCategory{}
	if err := applyCategory(category, in, true); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateCategory")
	defer span.End()

	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, s.translate(span, err, "failed to create category")
	}
	s.invalidate(ctx)
	return category, nil
}

// UpdateCategory applies the non-nil fields of in to an existing category.
func (s *Service) UpdateCategory(ctx context.Context, admin auth.Identity, id int64, in CategoryInput) (*entity.MenuCategory, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.UpdateCategory", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load category")
	}
	if err := applyCategory(category, in, false); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, s.translate(span, err, "failed to update category")
	}
	s.invalidate(ctx)
	return category, nil
}

// DeleteCategory removes a category along with its items.
func (s *Service) DeleteCategory(ctx context.Context, admin auth.Identity, id int64) error {
	if err := auth.Require(admin); err != nil {
		return err
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.DeleteCategory", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return s.translate(span, err, "failed to delete category")
	}
	s.invalidate(ctx)
	return nil
}

// ListItems returns every menu item, available or not, in display order.
func (s *Service) ListItems(ctx context.Context, admin auth.Identity) ([]*entity.MenuItem, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.ListItems")
	defer span.End()

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, s.translate(span, err, "failed to load menu items")
	}
	return items, nil
}

// CreateItem adds a menu item to an existing category. Items are available
// unless in says otherwise.
func (s *Service) CreateItem(ctx context.Context, admin auth.Identity, in ItemInput) (*entity.MenuItem, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}
	item := &entity.MenuItem{Available: true}
	if err := applyItem(item, in, true); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateItem", trace.WithAttributes(attribute.Int64("category.id", item.CategoryID)))
	defer span.End()

	if err := s.requireCategory(ctx, span, item.CategoryID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, s.translate(span, err, "failed to create menu item")
	}
	s.invalidate(ctx)
	return item, nil
}

// UpdateItem applies the non-nil fields of in to an existing item.
func (s *Service) UpdateItem(ctx context.Context, admin auth.Identity, id int64, in ItemInput) (*entity.MenuItem, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.UpdateItem", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load menu item")
	}
	previousCategory := item.CategoryID
	if err := applyItem(item, in, false); err != nil {
		return nil, err
	}
	if item.CategoryID != previousCategory {
		if err := s.requireCategory(ctx, span, item.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, s.translate(span, err, "failed to update menu item")
	}
	s.invalidate(ctx)
	return item, nil
}

// DeleteItem removes a menu item. Existing order lines keep their reference.
func (s *Service) DeleteItem(ctx context.Context, admin auth.Identity, id int64) error {
	if err := auth.Require(admin); err != nil {
		return err
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.DeleteItem", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return s.translate(span, err, "failed to delete menu item")
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) requireCategory(ctx context.Context, span trace.Span, id int64) error {
	if _, err := s.repo.GetCategory(ctx, id); err != nil {
		if errors.Is(err, repo.ErrCategoryNotFound) {
			return errorbank.NotFound("category not found", errorbank.WithDetail("category_id", id))
		}
		return s.translate(span, err, "failed to load category")
	}
	return nil
}

func applyCategory(category *entity.MenuCategory, in CategoryInput, create bool) error {
	if in.Name != nil {
		category.Name = strings.TrimSpace(*in.Name)
	}
	if (create || in.Name != nil) && category.Name == "" {
		return errorbank.Validation("category name is required", errorbank.WithDetail("field", "name"))
	}
	if in.Description != nil {
		category.Description = strings.TrimSpace(*in.Description)
	}
	if in.SortOrder != nil {
		category.SortOrder = *in.SortOrder
	}
	return nil
}

func applyItem(item *entity.MenuItem, in ItemInput, create bool) error {
	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
	}
	if (create || in.Name != nil) && item.Name == "" {
		return errorbank.Validation("item name is required", errorbank.WithDetail("field", "name"))
	}
	if in.CategoryID != nil {
		item.CategoryID = *in.CategoryID
	}
	if create && item.CategoryID <= 0 {
		return errorbank.Validation("category is required", errorbank.WithDetail("field", "category_id"))
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return errorbank.Validation("price must not be negative", errorbank.WithDetail("field", "price"))
		}
		item.Price = in.Price.Round(2)
	} else if create {
		return errorbank.Validation("price is required", errorbank.WithDetail("field", "price"))
	}
	if in.Description != nil {
		item.Description = strings.TrimSpace(*in.Description)
	}
	if in.ImageURL != nil {
		item.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.Available != nil {
		item.Available = *in.Available
	}
	if in.SortOrder != nil {
		item.SortOrder = *in.SortOrder
	}
	return nil
}

// menuKey returns the cache key of the current menu generation, starting a
// new generation when none is recorded. It must be read before the catalog.
func (s *Service) menuKey(ctx context.Context) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, PublicMenuVersionKey)
	if err == nil && len(version) > 0 {
		return PublicMenuCacheKey + ":" + string(version)
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("menu version read failed", zap.Error(err))
		return ""
	}
	return s.bumpVersion(ctx)
}

func (s *Service) bumpVersion(ctx context.Context) string {
	version := uuid.NewString()
	if err := s.cache.Set(ctx, PublicMenuVersionKey, []byte(version), 0); err != nil {
		s.logger.Warn("menu version write failed", zap.Error(err))
		return ""
	}
	return PublicMenuCacheKey + ":" + version
}

func (s *Service) menuFromCache(ctx context.Context, key string) ([]*entity.MenuCategory, error) {
	if key == "" {
		return nil, cache.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var menu []*entity.MenuCategory
	if err := json.Unmarshal(raw, &menu); err != nil {
		return nil, err
	}
	return menu, nil
}

func (s *Service) storeMenu(ctx context.Context, key string, menu []*entity.MenuCategory) error {
	if key == "" {
		return nil
	}
	raw, err := json.Marshal(menu)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, raw, s.cacheTTL)
}

// invalidate starts a new menu generation after a catalog write.
func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.bumpVersion(ctx)
}

func (s *Service) translate(span trace.Span, err error, msg string) error {
	switch {
	case errors.Is(err, repo.ErrCategoryNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("category not found")
	case errors.Is(err, repo.ErrItemNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("menu item not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.logger.Error(msg, zap.Error(err))
	return errorbank.Persistence(msg, errorbank.WithCause(err))
}
