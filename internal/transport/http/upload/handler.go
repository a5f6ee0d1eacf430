// Package upload serves admin image uploads.
package upload

import (
	"errors"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/dto"
	"github.com/cTHE0/restaurant/internal/presentation/http/response"
	"github.com/cTHE0/restaurant/internal/storage"
	"github.com/cTHE0/restaurant/internal/transport/http/middleware"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/cTHE0/restaurant/transport/http/upload")

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

// Handler accepts menu images.
type Handler struct {
	store  storage.Store
	logger *zap.Logger
}

// NewHandler constructs an upload Handler.
func NewHandler(store storage.Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register routes behind the admin gate.
func Register(e *echo.Echo, gate *middleware.AdminGate, h *Handler) {
	e.POST("/api/admin/upload", h.upload, gate.Require())
}

func (h *Handler) upload(c echo.Context) error {
	b := response.New(c)

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.store.MaxBytes()+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return b.WithError(errorbank.Validation("file too large", errorbank.WithDetail("max_bytes", h.store.MaxBytes()))).Build()
		}
		return b.WithError(errorbank.Validation("no file provided", errorbank.WithDetail("field", "file"))).Build()
	}
	if strings.TrimSpace(file.Filename) == "" {
		return b.WithError(errorbank.Validation("no file selected", errorbank.WithDetail("field", "file"))).Build()
	}
	if !h.store.Allowed(file.Filename) {
		return b.WithError(errorbank.Validation("file type not allowed", errorbank.WithDetail("filename", file.Filename))).Build()
	}
	if file.Size > h.store.MaxBytes() {
		return b.WithError(errorbank.Validation("file too large", errorbank.WithDetail("max_bytes", h.store.MaxBytes()))).Build()
	}

	ctx, span := httpTracer.Start(req.Context(), "upload.image")
	defer span.End()

	src, err := file.Open()
	if err != nil {
		return b.WithError(errorbank.Validation("unreadable file", errorbank.WithCause(err))).Build()
	}
	defer src.Close()

	obj, err := h.store.Save(ctx, file.Filename, src)
	switch {
	case errors.Is(err, storage.ErrExtensionNotAllowed):
		return b.WithError(errorbank.Validation("file type not allowed", errorbank.WithDetail("filename", file.Filename))).Build()
	case errors.Is(err, storage.ErrTooLarge):
		return b.WithError(errorbank.Validation("file too large", errorbank.WithDetail("max_bytes", h.store.MaxBytes()))).Build()
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		h.logger.Error("image upload failed", zap.String("filename", file.Filename), zap.Error(err))
		return b.WithError(errorbank.Persistence("failed to store file", errorbank.WithCause(err))).Build()
	}

	span.SetAttributes(attribute.String("upload.filename", obj.Filename), attribute.Int64("upload.size", obj.Size))
	h.logger.Info("image uploaded",
		zap.String("filename", obj.Filename),
		zap.String("admin", middleware.Identity(c).Username),
	)
	return b.WithStatus(http.StatusCreated).WithData(dto.UploadResponse{ImageURL: obj.URL, Filename: obj.Filename}).Build()
}
