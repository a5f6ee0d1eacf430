package main

import (
	"os"

	"github.com/cTHE0/restaurant/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
