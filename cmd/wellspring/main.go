// cmd/wellspring/main.go
package main

import (
	"context"
	"os"

	"github.com/dalemusser/waffle/app"

	"github.com/wellspringhq/wellspring/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		os.Exit(1)
	}
}
