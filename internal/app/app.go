// Package app wires configuration, storage and services together for the
// server and the command line tool.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/portfolio-analytics/internal/api"
	"github.com/ndewijer/portfolio-analytics/internal/cache"
	"github.com/ndewijer/portfolio-analytics/internal/config"
	"github.com/ndewijer/portfolio-analytics/internal/database"
	"github.com/ndewijer/portfolio-analytics/internal/repository"
	"github.com/ndewijer/portfolio-analytics/internal/scheduler"
	"github.com/ndewijer/portfolio-analytics/internal/service"
	"github.com/ndewijer/portfolio-analytics/internal/yahoo"
)

// App holds the long-lived dependencies of a running process.
type App struct {
	DB       *sqlx.DB
	Services api.Services
	// CachePurger is nil when the price cache lives in Redis.
	CachePurger scheduler.CachePurger

	closers []func() error
}

// New opens the database, applies migrations, selects the cache backend and
// constructs every service.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a := &App{DB: db, closers: []func() error{db.Close}}

	if err := database.Migrate(ctx, db); err != nil {
		a.Close()
		return nil, err
	}
	logger.WithField("driver", cfg.Database.Driver).Info("connected to database")

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to cache: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		store = cache.NewRedisStore(client)
	default:
		cacheRepo := repository.NewCacheRepository(db)
		store = cacheRepo
		a.CachePurger = cacheRepo
	}
	logger.WithField("backend", cfg.Cache.Backend).Info("price cache ready")

	gateway := yahoo.NewFinanceClient(yahoo.WithRetries(cfg.MarketData.MaxRetries, yahoo.DefaultBackoff))
	priceCache := cache.NewPriceCache(store, cfg.Cache.TTL, logger.WithField("component", "price_cache"))

	// Create services
	valuationService := service.NewValuationService(
		portfolioRepo,
		gateway,
		cfg.MarketData.FetchTimeout,
		logger.WithField("component", "valuation"),
	)
	snapshotService := service.NewSnapshotService(
		portfolioRepo,
		snapshotRepo,
		valuationService,
		notificationRepo,
		logger.WithField("component", "snapshot"),
	)
	a.closers = append(a.closers, func() error {
		snapshotService.Wait()
		return nil
	})

	a.Services = api.Services{
		System:    service.NewSystemService(db),
		Valuation: valuationService,
		Snapshot:  snapshotService,
		AUM: service.NewAUMService(
			portfolioRepo,
			snapshotRepo,
			logger.WithField("component", "aum"),
		),
		Backtest: service.NewBacktestService(
			gateway,
			priceCache,
			cfg.MarketData.FetchTimeout,
			cfg.Backtest.RequestTimeout,
			logger.WithField("component", "backtest"),
		),
	}

	return a, nil
}

// Close releases resources in reverse order of acquisition. Pending snapshot
// notifications are drained before the database is closed.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
