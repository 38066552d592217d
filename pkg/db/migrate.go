package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// Migrate applies every pending migration for the driver's dialect.
func (d *DB) Migrate(ctx context.Context, logger *slog.Logger) error {
	dialect, dir := goose.DialectSQLite3, "migrations/sqlite"
	if d.driver == DriverPostgres {
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, d.sql, fsys)
	if err != nil {
		return apperr.Storage("init migrations", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return apperr.Storage("apply migrations", err)
	}
	for _, r := range results {
		logger.Info("migration applied", "version", r.Source.Version, "file", r.Source.Path, "duration", r.Duration)
	}
	return nil
}
