package main

import (
	"os"

	"github.com/poyrazK/zonectl/internal/app"
)

func main() {
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
