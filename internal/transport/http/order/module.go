package order

import (
	"go.uber.org/fx"

	echo "github.com/labstack/echo/v4"

	"github.com/cTHE0/restaurant/internal/transport/http/middleware"
)

// Module wires the admin order endpoints.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, gate *middleware.AdminGate, h *Handler) {
		Register(e, gate, h)
	}),
)
