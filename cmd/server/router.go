package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kmuhangi/elimu-api/internal/api"
	apiMiddleware "github.com/kmuhangi/elimu-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
// It accepts the application dependencies to create handlers and register routes.
// Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(apiMiddleware.MetricsMiddleware)

	// Create API handlers using the application's services
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	accountHandler := api.NewAccountHandler(app.accountStore, app.tenancy)
	scheduleHandler := api.NewScheduleHandler(app.tenancy, app.scheduleStore, app.scheduler)
	resultHandler := api.NewResultHandler(app.tenancy, app.resultStore, app.ranking)
	rankingHandler := api.NewRankingHandler(app.ranking)
	promotionHandler := api.NewPromotionHandler(app.promotion)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Account creation is open: a root account is how a new tenant
		// bootstraps itself before it can obtain a token.
		r.Post("/accounts", accountHandler.CreateAccount)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/accounts/owner", accountHandler.ResolveOwner)
			r.Patch("/accounts/{id}/disabled", accountHandler.SetDisabled)

			r.Post("/academic-years", scheduleHandler.CreateYear)
			r.Post("/academic-years/{id}/schedule", scheduleHandler.GenerateSchedule)

			r.Post("/results", resultHandler.RecordScore)

			r.Post("/rankings/subject", rankingHandler.RecomputeSubjectRanking)
			r.Post("/rankings/term", rankingHandler.RecomputeTermRanking)

			r.Post("/promotions", promotionHandler.DecidePromotion)
			r.Get("/promotions", promotionHandler.GetPromotion)
		})
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
