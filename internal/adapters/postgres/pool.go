package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// NewPool creates a pgx connection pool from configuration and verifies
// connectivity with a ping. The returned cleanup closes the pool.
func NewPool(ctx context.Context, cfgProvider config.Provider, logger domain.Logger) (*pgxpool.Pool, func(), error) {
	dsn := cfgProvider.Get().Postgres.DSN
	if dsn == "" {
		return nil, nil, fmt.Errorf("postgres DSN is not configured")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Error(ctx, "Failed to create Postgres pool", "error", err.Error())
		return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error(ctx, "Failed to ping Postgres", "error", err.Error())
		return nil, nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	cleanup := func() {
		pool.Close()
		logger.Info(context.Background(), "Postgres pool closed")
	}
	logger.Info(ctx, "Successfully connected to Postgres")
	return pool, cleanup, nil
}
