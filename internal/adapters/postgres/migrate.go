package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/postgres/migrations"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// RunMigrations applies the embedded schema migrations. It opens a separate
// database/sql connection because goose does not speak the pgx pool API; the
// connection is closed before returning.
func RunMigrations(ctx context.Context, dsn string, logger domain.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Files)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info(ctx, "Database migrations applied")
	return nil
}
