package main

import (
	"database/sql"
	"log/slog"

	"github.com/kmuhangi/elimu-api/internal/config"
	"github.com/kmuhangi/elimu-api/internal/platform/postgres"
	"github.com/kmuhangi/elimu-api/internal/service"
	"github.com/kmuhangi/elimu-api/internal/service/auth"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	accountStore   store.AccountStore
	scheduleStore  store.ScheduleStore
	resultStore    store.ResultStore
	promotionStore store.PromotionStore

	jwtService auth.JWTService
	tenancy    *service.TenancyResolver
	scheduler  *service.CycleScheduler
	ranking    *service.RankingService
	promotion  *service.PromotionService
}

// newApplication wires stores and services over one shared database
// connection pool.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("failed to close database during startup failure", "error", cerr)
		}
		return nil, err
	}

	accountStore := postgres.NewPostgresAccountStore(db, logger)
	scheduleStore := postgres.NewPostgresScheduleStore(db, logger)
	resultStore := postgres.NewPostgresResultStore(db, logger)
	promotionStore := postgres.NewPostgresPromotionStore(db, logger)

	txRunner := store.NewSQLTxRunner(db)
	tenancy := service.NewTenancyResolver(accountStore, cfg.Engine.TenancyMaxDepth, logger)
	scheduler := service.NewCycleScheduler(scheduleStore, txRunner, logger)
	ranking := service.NewRankingService(tenancy, resultStore, txRunner, logger)
	promotion := service.NewPromotionService(tenancy, scheduleStore, resultStore, promotionStore, logger)

	return &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		accountStore:   accountStore,
		scheduleStore:  scheduleStore,
		resultStore:    resultStore,
		promotionStore: promotionStore,
		jwtService:     jwtService,
		tenancy:        tenancy,
		scheduler:      scheduler,
		ranking:        ranking,
		promotion:      promotion,
	}, nil
}

// close releases the application's resources.
func (app *application) close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn("failed to close database", "error", err)
		}
	}
}
