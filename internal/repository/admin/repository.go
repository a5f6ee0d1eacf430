package admin

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cTHE0/restaurant/internal/database"
	"github.com/cTHE0/restaurant/internal/entity"
)

var repoTracer = otel.Tracer("github.com/cTHE0/restaurant/repository/admin")

var (
	// ErrNotFound is returned when an admin user is missing.
	ErrNotFound = errors.New("admin user not found")
	// ErrDuplicate is returned when the username is already taken.
	ErrDuplicate = errors.New("admin username already exists")
)

// Repository encapsulates read/write access for admin users.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create persists a new admin user.
func (r *Repository) Create(ctx context.Context, user *entity.AdminUser) error {
	if user == nil {
		return errors.New("nil admin user")
	}
	ctx, span := repoTracer.Start(ctx, "AdminRepository.Create", trace.WithAttributes(attribute.String("admin.username", user.Username)))
	defer span.End()

	exists, err := r.writer.NewSelect().Model((*entity.AdminUser)(nil)).Where("username = ?", user.Username).Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return err
	}
	if exists {
		return ErrDuplicate
	}

	if _, err := r.writer.NewInsert().Model(user).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// GetByUsername looks an admin user up by login name.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*entity.AdminUser, error) {
	ctx, span := repoTracer.Start(ctx, "AdminRepository.GetByUsername", trace.WithAttributes(attribute.String("admin.username", username)))
	defer span.End()

	user := new(entity.AdminUser)
	err := r.reader.NewSelect().Model(user).Where("au.username = ?", username).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return user, nil
}

// GetByID fetches an admin user by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.AdminUser, error) {
	ctx, span := repoTracer.Start(ctx, "AdminRepository.GetByID", trace.WithAttributes(attribute.Int64("admin.id", id)))
	defer span.End()

	user := new(entity.AdminUser)
	err := r.reader.NewSelect().Model(user).Where("au.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
