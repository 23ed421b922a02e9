package testutil

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ndewijer/portfolio-analytics/internal/cache"
	"github.com/ndewijer/portfolio-analytics/internal/repository"
	"github.com/ndewijer/portfolio-analytics/internal/service"
)

// TestFetchTimeout is the per-call market data timeout used by test services.
const TestFetchTimeout = 2 * time.Second

// MakeID returns a new random UUID string.
func MakeID() string {
	return uuid.New().String()
}

// MakeName returns prefix with a random suffix so names stay unique across builders.
func MakeName(prefix string) string {
	//nolint:gosec // G404: test data only
	return fmt.Sprintf("%s %d", prefix, rand.Intn(1_000_000))
}

// NewTestLogger returns a logger that discards output and a hook recording every entry.
//
// Example usage:
//
//	logger, hook := testutil.NewTestLogger()
//	// ...
//	assert.Equal(t, "cache degraded: write failed", hook.LastEntry().Message)
func NewTestLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func NewTestValuationService(t *testing.T, db *sqlx.DB, gateway service.MarketDataGateway, logger logrus.FieldLogger) *service.ValuationService {
	t.Helper()

	return service.NewValuationService(
		repository.NewPortfolioRepository(db),
		gateway,
		TestFetchTimeout,
		logger,
	)
}

// NewTestSnapshotService builds a SnapshotService. notifier may be nil, in which case
// notifications are stored in the notification table.
func NewTestSnapshotService(t *testing.T, db *sqlx.DB, gateway service.MarketDataGateway, notifier service.NotificationSink, logger logrus.FieldLogger) *service.SnapshotService {
	t.Helper()

	if notifier == nil {
		notifier = repository.NewNotificationRepository(db)
	}

	svc := service.NewSnapshotService(
		repository.NewPortfolioRepository(db),
		repository.NewSnapshotRepository(db),
		NewTestValuationService(t, db, gateway, logger),
		notifier,
		logger,
	)
	// Drain notifications before the database is closed.
	t.Cleanup(svc.Wait)
	return svc
}

func NewTestAUMService(t *testing.T, db *sqlx.DB, logger logrus.FieldLogger) *service.AUMService {
	t.Helper()

	return service.NewAUMService(
		repository.NewPortfolioRepository(db),
		repository.NewSnapshotRepository(db),
		logger,
	)
}

// NewTestBacktestService builds a BacktestService whose price cache uses store.
// A nil store disables caching.
func NewTestBacktestService(t *testing.T, gateway service.MarketDataGateway, store cache.Store, logger logrus.FieldLogger) *service.BacktestService {
	t.Helper()

	return service.NewBacktestService(
		gateway,
		cache.NewPriceCache(store, cache.DefaultTTL, logger),
		TestFetchTimeout,
		10*time.Second,
		logger,
	)
}

func NewTestSystemService(t *testing.T, db *sqlx.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}
