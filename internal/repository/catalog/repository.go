package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cTHE0/restaurant/internal/database"
	"github.com/cTHE0/restaurant/internal/entity"
)

var repoTracer = otel.Tracer("github.com/cTHE0/restaurant/repository/catalog")

var (
	// ErrCategoryNotFound is returned when a category is missing.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrItemNotFound is returned when a menu item is missing.
	ErrItemNotFound = errors.New("menu item not found")
)

// Repository encapsulates read/write access for menu categories and items.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// ListCategories returns every category by display rank, ties by id.
func (r *Repository) ListCategories(ctx context.Context) ([]*entity.MenuCategory, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ListCategories")
	defer span.End()

	var categories []*entity.MenuCategory
	err := r.reader.NewSelect().Model(&categories).
		OrderExpr("mc.sort_order ASC, mc.id ASC").
		Scan(ctx)
	if err != nil {
		fail(span, err, "select failed")
		return nil, err
	}
	return categories, nil
}

// GetCategory fetches a category by primary key.
func (r *Repository) GetCategory(ctx context.Context, id int64) (*entity.MenuCategory, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.GetCategory", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	category := new(entity.MenuCategory)
	err := r.reader.NewSelect().Model(category).Where("mc.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		fail(span, err, "select failed")
		return nil, err
	}
	return category, nil
}

// CreateCategory persists a new category.
func (r *Repository) CreateCategory(ctx context.Context, category *entity.MenuCategory) error {
	if category == nil {
		return errors.New("nil category")
	}
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.CreateCategory")
	defer span.End()

	if _, err := r.writer.NewInsert().Model(category).Exec(ctx); err != nil {
		fail(span, err, "insert failed")
		return err
	}
	return nil
}

// UpdateCategory overwrites the mutable columns of a category. Callers
// load the row first; a missing row is not reported.
func (r *Repository) UpdateCategory(ctx context.Context, category *entity.MenuCategory) error {
	if category == nil {
		return errors.New("nil category")
	}
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.UpdateCategory", trace.WithAttributes(attribute.Int64("category.id", category.ID)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model(category).
		Column("name", "description", "sort_order").
		WherePK().
		Exec(ctx)
	if err != nil {
		fail(span, err, "update failed")
	}
	return err
}

// DeleteCategory removes a category together with its items.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.DeleteCategory", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*entity.MenuItem)(nil)).Where("category_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*entity.MenuCategory)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		return requireAffected(res, ErrCategoryNotFound)
	})
	if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		fail(span, err, "delete failed")
	}
	return err
}

// ListItems returns every menu item by display rank, ties by id.
func (r *Repository) ListItems(ctx context.Context) ([]*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ListItems")
	defer span.End()

	var items []*entity.MenuItem
	err := r.reader.NewSelect().Model(&items).
		OrderExpr("mi.sort_order ASC, mi.id ASC").
		Scan(ctx)
	if err != nil {
		fail(span, err, "select failed")
		return nil, err
	}
	return items, nil
}

// ListAvailableItems returns the orderable items by display rank, ties by id.
func (r *Repository) ListAvailableItems(ctx context.Context) ([]*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ListAvailableItems")
	defer span.End()

	var items []*entity.MenuItem
	err := r.reader.NewSelect().Model(&items).
		Where("mi.available = ?", true).
		OrderExpr("mi.sort_order ASC, mi.id ASC").
		Scan(ctx)
	if err != nil {
		fail(span, err, "select failed")
		return nil, err
	}
	return items, nil
}

// GetItem fetches a menu item by primary key.
func (r *Repository) GetItem(ctx context.Context, id int64) (*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.GetItem", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	item := new(entity.MenuItem)
	err := r.reader.NewSelect().Model(item).Where("mi.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrItemNotFound
	}
	if err != nil {
		fail(span, err, "select failed")
		return nil, err
	}
	return item, nil
}

// ItemsByID loads the given items keyed by id. Unknown ids are absent from
// the result.
func (r *Repository) ItemsByID(ctx context.Context, ids []int64) (map[int64]*entity.MenuItem, error) {
	result := make(map[int64]*entity.MenuItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ItemsByID", trace.WithAttributes(attribute.Int("item.count", len(ids))))
	defer span.End()

	var items []*entity.MenuItem
	err := r.reader.NewSelect().Model(&items).Where("mi.id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil {
		fail(span, err, "select failed")
		return nil, err
	}
	for _, item := range items {
		result[item.ID] = item
	}
	return result, nil
}

// CreateItem persists a new menu item.
func (r *Repository) CreateItem(ctx context.Context, item *entity.MenuItem) error {
	if item == nil {
		return errors.New("nil menu item")
	}
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.CreateItem", trace.WithAttributes(attribute.Int64("category.id", item.CategoryID)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(item).Exec(ctx); err != nil {
		fail(span, err, "insert failed")
		return err
	}
	return nil
}

// UpdateItem overwrites the mutable columns of a menu item. Callers load the
// row first; a missing row is not reported.
func (r *Repository) UpdateItem(ctx context.Context, item *entity.MenuItem) error {
	if item == nil {
		return errors.New("nil menu item")
	}
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.UpdateItem", trace.WithAttributes(attribute.Int64("item.id", item.ID)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model(item).
		Column("category_id", "name", "description", "price", "image_url", "available", "sort_order").
		WherePK().
		Exec(ctx)
	if err != nil {
		fail(span, err, "update failed")
	}
	return err
}

// DeleteItem removes a menu item. Order lines referencing it are kept.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.DeleteItem", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.MenuItem)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		fail(span, err, "delete failed")
		return err
	}
	return requireAffected(res, ErrItemNotFound)
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func fail(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}
