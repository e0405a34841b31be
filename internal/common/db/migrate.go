package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/devnla/backend-express/internal/common/db/migrations"
	"github.com/devnla/backend-express/internal/common/logger"
)

// gooseUp is replaced in tests.
var gooseUp = func(ctx context.Context, conn *sql.DB, dir string) error {
	return goose.UpContext(ctx, conn, dir)
}

// RunMigrations applies the embedded schema through a database/sql handle
// that shares the pool's connection settings.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	conn := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer conn.Close()

	return runMigrations(ctx, conn, log)
}

func runMigrations(ctx context.Context, conn *sql.DB, log *logger.Logger) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := gooseUp(ctx, conn, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Info("database migrations applied")
	return nil
}
