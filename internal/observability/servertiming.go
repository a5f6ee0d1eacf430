package observability

import (
	"context"
	"net/http"

	echo "github.com/labstack/echo/v4"
	servertiming "github.com/mitchellh/go-server-timing"
)

// Timing is a running Server-Timing metric. A nil or empty Timing is a no-op.
type Timing struct {
	metric *servertiming.Metric
}

// Stop ends the metric.
func (t *Timing) Stop() {
	if t != nil && t.metric != nil {
		t.metric.Stop()
	}
}

// StartTiming starts a named Server-Timing metric when the request carries a
// timing header, and a no-op otherwise.
func StartTiming(ctx context.Context, name, desc string) *Timing {
	timing := servertiming.FromContext(ctx)
	if timing == nil {
		return &Timing{}
	}
	metric := timing.NewMetric(name)
	if desc != "" {
		metric = metric.WithDesc(desc)
	}
	return &Timing{metric: metric.Start()}
}

// ServerTimingMiddleware attaches a Server-Timing header to every response.
func ServerTimingMiddleware() echo.MiddlewareFunc {
	return echo.WrapMiddleware(func(next http.Handler) http.Handler {
		return servertiming.Middleware(next, nil)
	})
}
