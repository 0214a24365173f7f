// Package main implements the entry point for the Elimu API server,
// the academic cycle engine behind a multi-tenant school administration
// platform: term/exam scheduling, class rankings and year-end promotion
// decisions.
package main

import (
	"flag"
	"log"
	"log/slog"

	"github.com/kmuhangi/elimu-api/internal/config"
	"github.com/kmuhangi/elimu-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command instead of the server (up, down, status)")
	flag.Parse()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd); err != nil {
			appLogger.Error("migration failed", "command", *migrateCmd, "error", err)
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}
	defer app.close()

	if err := app.serve(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"tenancy_max_depth", cfg.Engine.TenancyMaxDepth)

	return cfg, appLogger, nil
}
