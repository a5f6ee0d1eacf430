package upload

import (
	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/cTHE0/restaurant/internal/transport/http/middleware"
)

// Module wires the admin image upload endpoint.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, gate *middleware.AdminGate, h *Handler) {
		Register(e, gate, h)
	}),
)
