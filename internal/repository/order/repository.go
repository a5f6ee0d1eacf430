package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cTHE0/restaurant/internal/database"
	"github.com/cTHE0/restaurant/internal/entity"
)

var repoTracer = otel.Tracer("github.com/cTHE0/restaurant/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for orders.
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

// Create persists an order and all of its lines in one transaction. Either
// every row is written or none is.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(
		attribute.String("order.table", order.TableNumber),
		attribute.Int("order.lines", len(order.Items)),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}
		for _, item := range order.Items {
			item.OrderID = order.ID
		}
		_, err := tx.NewInsert().Model(&order.Items).Exec(ctx)
		return err
	})
	if err != nil {
		order.ID = 0
		for _, item := range order.Items {
			item.ID, item.OrderID = 0, 0
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// GetByID fetches an order with its lines using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).
		Relation("Items", orderLines).
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns orders newest first, optionally restricted to one status.
func (r *Repository) List(ctx context.Context, status entity.OrderStatus) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(attribute.String("order.status", string(status))))
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().Model(&orders).
		Relation("Items", orderLines).
		OrderExpr("o.created_at DESC, o.id DESC")
	if status != "" {
		q = q.Where("o.status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// UpdateStatus overwrites the status and refresh timestamp of an order.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status entity.OrderStatus, updatedAt time.Time) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", updatedAt).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of orders.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Count")
	defer span.End()

	n, err := r.reader.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
	}
	return n, err
}

// CountLines returns the number of order lines across all orders.
func (r *Repository) CountLines(ctx context.Context) (int, error) {
	return r.reader.NewSelect().Model((*entity.OrderItem)(nil)).Count(ctx)
}

type statusCount struct {
	Status entity.OrderStatus `bun:"status"`
	Count  int                `bun:"count"`
}

// CountByStatus groups the order count by status. Statuses without orders
// are absent.
func (r *Repository) CountByStatus(ctx context.Context) (map[entity.OrderStatus]int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CountByStatus")
	defer span.End()

	var rows []statusCount
	err := r.reader.NewSelect().Model((*entity.Order)(nil)).
		Column("status").
		ColumnExpr("COUNT(*) AS count").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	counts := make(map[entity.OrderStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountCreatedBetween counts orders created in [from, to).
func (r *Repository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CountCreatedBetween")
	defer span.End()

	n, err := r.reader.NewSelect().Model((*entity.Order)(nil)).
		Where("created_at >= ?", from.UTC()).
		Where("created_at < ?", to.UTC()).
		Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
	}
	return n, err
}

// RevenueExcluding sums order totals, skipping orders in the given status.
// An empty set sums to zero.
func (r *Repository) RevenueExcluding(ctx context.Context, status entity.OrderStatus) (decimal.Decimal, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.RevenueExcluding")
	defer span.End()

	var sum decimal.NullDecimal
	err := r.reader.NewSelect().Model((*entity.Order)(nil)).
		ColumnExpr("COALESCE(SUM(total), 0)").
		Where("status <> ?", status).
		Scan(ctx, &sum)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func orderLines(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("oi.id ASC")
}
