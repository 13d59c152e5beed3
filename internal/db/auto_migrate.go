package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations aplica as migrações goose embutidas que ainda não rodaram.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, r := range results {
		logging.Get().Debug("migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("file", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}
	return nil
}

// MigrationVersion retorna a versão atual do schema.
func MigrationVersion(ctx context.Context, db *sql.DB) (int64, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider.GetDBVersion(ctx)
}
