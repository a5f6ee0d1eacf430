package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/cTHE0/restaurant/internal/migration"
	"github.com/cTHE0/restaurant/internal/seeder"
)

func TestGraphsResolve(t *testing.T) {
	for name, opts := range map[string]fx.Option{
		"http":    HTTP,
		"worker":  Worker,
		"migrate": fx.Options(Core, migration.Module),
		"seed":    fx.Options(Core, seeder.Module),
		"api":     fx.Options(Bootstrap, HTTP),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, fx.ValidateApp(opts))
		})
	}
}
