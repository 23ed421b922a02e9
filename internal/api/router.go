package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/portfolio-analytics/internal/api/handlers"
	custommiddleware "github.com/ndewijer/portfolio-analytics/internal/api/middleware"
	"github.com/ndewijer/portfolio-analytics/internal/config"
	"github.com/ndewijer/portfolio-analytics/internal/service"
)

// Services groups the services exposed over HTTP.
type Services struct {
	System    *service.SystemService
	Valuation *service.ValuationService
	Snapshot  *service.SnapshotService
	AUM       *service.AUMService
	Backtest  *service.BacktestService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config, logger logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(services.Valuation, services.Snapshot)
			r.Post("/snapshots", portfolioHandler.SnapshotAll)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/valuation", portfolioHandler.Valuation)
				r.Post("/snapshot", portfolioHandler.Snapshot)
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			dashboardHandler := handlers.NewDashboardHandler(services.AUM)
			r.Get("/aum-history", dashboardHandler.AUMHistory)
			r.Get("/summary", dashboardHandler.Summary)
		})

		r.Route("/backtest", func(r chi.Router) {
			backtestHandler := handlers.NewBacktestHandler(services.Backtest)
			r.Post("/", backtestHandler.Run)
		})
	})

	return r
}
