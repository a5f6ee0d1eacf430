package session

import "go.uber.org/fx"

// Module provides the admin session service to Fx.
var Module = fx.Provide(NewService)
