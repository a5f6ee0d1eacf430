// Command api runs the HTTP service after migrating and seeding the database.
package main

import (
	"go.uber.org/fx"

	"github.com/cTHE0/restaurant/internal/app"
)

func main() {
	fx.New(app.Bootstrap, app.HTTP).Run()
}
