package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// tracedDriver registra o go-sqlite3 embrulhado pelo otelsql; cada query vira
// um span filho do request.
func tracedDriver() (string, error) {
	name, err := otelsql.Register("sqlite3", otelsql.WithAttributes(semconv.DBSystemSqlite))
	if err != nil {
		return "", fmt.Errorf("failed to register otelsql: %w", err)
	}
	return name, nil
}

func initDB() (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	driver, err := tracedDriver()
	if err != nil {
		return nil, err
	}
	dbConn, err := sql.Open(driver, cfg.SQLite.DSN(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := cfg.SQLite.ApplyPragmas(dbConn); err != nil {
		dbConn.Close()
		return nil, err
	}
	return dbConn, nil
}

func fatal(msg string, err error) {
	logging.Get().Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}

func RunSeed() {
	logging.Init()

	dbConn, err := initDB()
	if err != nil {
		fatal("failed to open database", err)
	}
	defer dbConn.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx, dbConn); err != nil {
		fatal("failed to run migrations during seed", err)
	}
	if err := db.Seed(ctx, dbConn); err != nil {
		fatal("failed to seed database", err)
	}
}

func RunMigrate() {
	logging.Init()
	logger := logging.Get()

	dbConn, err := initDB()
	if err != nil {
		fatal("failed to open database", err)
	}
	defer dbConn.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx, dbConn); err != nil {
		fatal("failed to run migrations", err)
	}
	version, err := db.MigrationVersion(ctx, dbConn)
	if err != nil {
		fatal("failed to read migration version", err)
	}
	logger.Info("migrations executed successfully", slog.Int64("version", version))
}
