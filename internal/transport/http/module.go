package http

import (
	"go.uber.org/fx"

	catalogtransport "github.com/cTHE0/restaurant/internal/transport/http/catalog"
	menutransport "github.com/cTHE0/restaurant/internal/transport/http/menu"
	"github.com/cTHE0/restaurant/internal/transport/http/middleware"
	ordertransport "github.com/cTHE0/restaurant/internal/transport/http/order"
	sessiontransport "github.com/cTHE0/restaurant/internal/transport/http/session"
	uploadtransport "github.com/cTHE0/restaurant/internal/transport/http/upload"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	middleware.Module,
	menutransport.Module,
	ordertransport.Module,
	catalogtransport.Module,
	sessiontransport.Module,
	uploadtransport.Module,
)
