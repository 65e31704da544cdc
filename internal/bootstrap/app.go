package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appnats "gitlab.com/arvora/api/storefront-service/internal/adapters/nats"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/safego"
)

// NOTE: The App struct and NewApp function are defined in providers.go for Wire.
// This file only contains methods for the App struct and the readiness probe.

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	version := "unknown"
	serviceName := "storefront-service"
	if a.configProvider != nil && a.configProvider.Get() != nil {
		configApp := a.configProvider.Get().App
		if configApp.Version != "" {
			version = configApp.Version
		}
		if configApp.ServiceName != "" {
			serviceName = configApp.ServiceName
		}
	}
	a.logger.Info(ctx, "Starting application", "service_name", serviceName, "version", version)

	safego.Execute(ctx, a.logger, "SignalListenerAndGracefulShutdown", func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			a.logger.Info(context.Background(), "Shutdown signal received, initiating graceful shutdown...", "signal", sig.String())
		case <-ctx.Done():
			a.logger.Info(context.Background(), "Application context cancelled, initiating graceful shutdown...")
		}

		shutdownTimeout := 30 * time.Second
		if a.configProvider != nil && a.configProvider.Get() != nil {
			configApp := a.configProvider.Get().App
			if configApp.ShutdownTimeoutSeconds > 0 {
				shutdownTimeout = time.Duration(configApp.ShutdownTimeoutSeconds) * time.Second
			}
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error(context.Background(), "HTTP server graceful shutdown failed", "error", err.Error())
		}
		a.logger.Info(context.Background(), "HTTP server shut down.")
	})

	a.logger.Info(ctx, fmt.Sprintf("HTTP server listening on port %d", a.configProvider.Get().Server.HTTPPort))
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error(ctx, "HTTP server ListenAndServe error", "error", err.Error())
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	a.logger.Info(ctx, "Application shut down gracefully or server closed.")
	return nil
}

// readinessHandler checks every hard dependency and reports per-dependency
// status. Any failed dependency flips the response to 503.
func readinessHandler(appLogger domain.Logger, pool *pgxpool.Pool, redisClient *redis.Client, natsPublisher *appnats.PublisherAdapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		ready := true
		dependencies := make(map[string]string)

		if pool != nil {
			if err := pool.Ping(r.Context()); err == nil {
				dependencies["postgres"] = "connected"
			} else {
				dependencies["postgres"] = "disconnected"
				ready = false
				appLogger.Warn(r.Context(), "Readiness check failed: postgres ping failed", "error", err.Error())
			}
		} else {
			dependencies["postgres"] = "not_configured"
			ready = false
		}

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err == nil {
				dependencies["redis"] = "connected"
			} else {
				dependencies["redis"] = "disconnected"
				ready = false
				appLogger.Warn(r.Context(), "Readiness check failed: redis ping failed", "error", err.Error())
			}
		} else {
			dependencies["redis"] = "not_configured"
			ready = false
		}

		if natsPublisher != nil && natsPublisher.Connected() {
			dependencies["nats"] = "connected"
		} else {
			dependencies["nats"] = "disconnected"
			ready = false
			appLogger.Warn(r.Context(), "Readiness check failed: NATS disconnected")
		}

		response := struct {
			Status       string            `json:"status"`
			Dependencies map[string]string `json:"dependencies"`
		}{Dependencies: dependencies}

		if ready {
			response.Status = "READY"
			w.WriteHeader(http.StatusOK)
		} else {
			response.Status = "NOT_READY"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			appLogger.Error(r.Context(), "Failed to encode readiness response", "error", err)
		}
	}
}
