package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-analytics/internal/config"
)

func testConfig(backend, redisURL string) *config.Config {
	return &config.Config{
		Database:   config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		Cache:      config.CacheConfig{Backend: backend, RedisURL: redisURL, TTL: time.Hour},
		MarketData: config.MarketDataConfig{FetchTimeout: time.Second, MaxRetries: 0},
		Backtest:   config.BacktestConfig{RequestTimeout: time.Minute},
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	t.Run("sql cache backend", func(t *testing.T) {
		a, err := New(ctx, testConfig("sql", ""), logger)
		require.NoError(t, err)
		defer a.Close()

		assert.NotNil(t, a.CachePurger, "the SQL cache needs purging")
		assert.NotNil(t, a.Services.Valuation)
		assert.NotNil(t, a.Services.Snapshot)
		assert.NotNil(t, a.Services.AUM)
		assert.NotNil(t, a.Services.Backtest)
		assert.NoError(t, a.Services.System.CheckHealth(ctx))
	})

	t.Run("redis cache backend", func(t *testing.T) {
		mr := miniredis.RunT(t)

		a, err := New(ctx, testConfig("redis", "redis://"+mr.Addr()), logger)
		require.NoError(t, err)

		assert.Nil(t, a.CachePurger, "redis expires entries itself")
		assert.NoError(t, a.Close())
	})

	t.Run("unreachable redis fails startup", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := New(ctx, testConfig("redis", "redis://"+addr), logger)
		assert.ErrorContains(t, err, "failed to connect to cache")
	})

	t.Run("close is safe to call twice", func(t *testing.T) {
		a, err := New(ctx, testConfig("sql", ""), logger)
		require.NoError(t, err)

		assert.NoError(t, a.Close())
		assert.NoError(t, a.Close())
	})
}
