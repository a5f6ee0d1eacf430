package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/config"
	"github.com/cTHE0/restaurant/internal/observability"
	"github.com/cTHE0/restaurant/internal/presentation/http/response"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho),
	fx.Invoke(Run),
)

// NewEcho configures the Echo router with the shared middleware, the health
// probe and the static upload directory.
func NewEcho(cfg config.Config, obs *observability.Manager, logger *zap.Logger) *echo.Echo {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}
	if cfg.Observability.ServerTiming {
		e.Use(observability.ServerTimingMiddleware())
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if obs != nil && obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(cfg.Observability.PrometheusPath, echo.WrapHandler(obs.MetricsHandler()))
	}

	if cfg.Upload.PublicPath != "" && cfg.Upload.Dir != "" {
		e.Static(cfg.Upload.PublicPath, cfg.Upload.Dir)
	}

	return e
}

// errorHandler renders router-level failures such as unknown routes in the
// same envelope as handler errors.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			msg := http.StatusText(httpErr.Code)
			if s, ok := httpErr.Message.(string); ok && s != "" {
				msg = s
			}
			var appErr error
			switch httpErr.Code {
			case http.StatusNotFound:
				appErr = errorbank.NotFound(msg)
			case http.StatusUnauthorized:
				appErr = errorbank.Unauthorized(msg)
			case http.StatusTooManyRequests:
				appErr = errorbank.TooManyRequests(msg)
			default:
				if httpErr.Code < http.StatusInternalServerError {
					c.Echo().DefaultHTTPErrorHandler(err, c)
					return
				}
				appErr = errorbank.Internal(msg, errorbank.WithCause(err))
			}
			if httpErr.Code >= http.StatusInternalServerError {
				logger.Error("http request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			_ = response.New(c).WithError(appErr).Build()
			return
		}

		logger.Error("http request failed", zap.String("path", c.Path()), zap.Error(err))
		_ = response.New(c).WithError(errorbank.From(err)).Build()
	}
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	server := &http.Server{
		Addr:    addr,
		Handler: e,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting HTTP server", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
