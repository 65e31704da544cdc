// Package safego launches background goroutines that survive panics. Every
// long-running goroutine in the service (cache janitor, signal listener,
// notifier pumps) goes through Execute so a panic ends up in the log instead
// of taking the process down.
package safego

import (
	"context"
	"fmt"
	"runtime/debug"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// Execute runs fn in a new goroutine, recovering any panic and logging it
// under name together with the stack trace.
func Execute(ctx context.Context, logger domain.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				// The surrounding context may already be cancelled by the
				// time the panic surfaces; log against a fresh one then.
				logCtx := ctx
				if ctx.Err() != nil {
					logCtx = context.Background()
				}
				logger.Error(logCtx, fmt.Sprintf("Recovered panic in goroutine %q", name),
					"panic", fmt.Sprintf("%v", r),
					"stacktrace", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
