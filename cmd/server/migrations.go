package main

import (
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/kmuhangi/elimu-api/internal/config"
)

// migrationsDir is the path to the SQL migration files, relative to the
// working directory the server is launched from.
const migrationsDir = "migrations"

// migrationTableName isolates our migration bookkeeping from any other
// goose-managed schema sharing the database.
const migrationTableName = "elimu_schema_migrations"

// slogGooseLogger adapts goose's logger interface onto slog.
type slogGooseLogger struct{}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// runMigrations executes the given goose command (up, down, status)
// against the configured database.
func runMigrations(cfg *config.Config, command string) error {
	goose.SetLogger(&slogGooseLogger{})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	goose.SetTableName(migrationTableName)

	db, err := setupDatabase(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			slog.Warn("failed to close database after migrations", "error", cerr)
		}
	}()

	switch command {
	case "up":
		return goose.Up(db, migrationsDir)
	case "down":
		return goose.Down(db, migrationsDir)
	case "status":
		return goose.Status(db, migrationsDir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}
