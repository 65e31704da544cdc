package main

import (
	"context"
	"fmt"
	"os"

	"gitlab.com/arvora/api/storefront-service/internal/bootstrap"
	"gitlab.com/arvora/api/storefront-service/pkg/contextkeys"
)

func main() {
	ctx := context.Background()
	ctx = context.WithValue(ctx, contextkeys.RequestIDKey, "app-main")

	app, cleanup, err := bootstrap.InitializeApp(ctx)
	if err != nil {
		// The main logger is not available until bootstrap succeeds.
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := app.Run(ctx); err != nil {
		fmt.Printf("Application run failed: %v\n", err)
		os.Exit(1)
	}
}
