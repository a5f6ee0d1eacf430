package order

import "go.uber.org/fx"

// Module provides the order repository shared by the order engine and the
// dashboard queries.
var Module = fx.Provide(NewRepository)
