package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-analytics/internal/cache"
	"github.com/ndewijer/portfolio-analytics/internal/model"
	"github.com/ndewijer/portfolio-analytics/internal/testutil"
)

func series(values ...float64) model.Series {
	return model.Series{
		Dates:  testutil.Days(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), len(values)),
		Values: values,
	}
}

// countingFetch returns a FetchFunc that serves s and counts its invocations.
func countingFetch(s model.Series, err error) (cache.FetchFunc, *int) {
	calls := 0
	return func(context.Context) (model.Series, error) {
		calls++
		return s, err
	}, &calls
}

// TestPriceCache_GetOrFetch tests the read-through behavior of the price cache.
//
// WHY: The cache sits in front of a rate-limited provider. A hit must avoid the
// fetch entirely, and a broken backend must degrade to direct fetches instead of
// failing the backtest.
func TestPriceCache_GetOrFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("miss fetches and stores, hit serves from store", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		logger, _ := testutil.NewTestLogger()
		pc := cache.NewPriceCache(store, time.Hour, logger)
		fetch, calls := countingFetch(series(1, 2, 3), nil)

		first, err := pc.GetOrFetch(ctx, "AAPL", "1y", model.DataTypePrices, fetch)
		require.NoError(t, err)
		second, err := pc.GetOrFetch(ctx, "AAPL", "1y", model.DataTypePrices, fetch)
		require.NoError(t, err)

		assert.Equal(t, 1, *calls)
		assert.Equal(t, first.Values, second.Values)
		require.Len(t, second.Dates, 3)
		assert.True(t, first.Dates[2].Equal(second.Dates[2]))
		assert.Equal(t, 1, store.Sets)
	})

	t.Run("keys differ by ticker, period and data type", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		logger, _ := testutil.NewTestLogger()
		pc := cache.NewPriceCache(store, time.Hour, logger)
		fetch, calls := countingFetch(series(1, 2), nil)

		for _, k := range []struct {
			ticker, period string
			dataType       model.DataType
		}{
			{"AAPL", "1y", model.DataTypePrices},
			{"MSFT", "1y", model.DataTypePrices},
			{"AAPL", "5y", model.DataTypePrices},
			{"AAPL", "1y", model.DataTypeDividends},
		} {
			_, err := pc.GetOrFetch(ctx, k.ticker, k.period, k.dataType, fetch)
			require.NoError(t, err)
		}

		assert.Equal(t, 4, *calls)
		assert.Equal(t, 4, store.Len())
	})

	t.Run("fetch error is returned and not cached", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		logger, _ := testutil.NewTestLogger()
		pc := cache.NewPriceCache(store, time.Hour, logger)
		boom := errors.New("upstream down")
		fetch, _ := countingFetch(model.Series{}, boom)

		_, err := pc.GetOrFetch(ctx, "AAPL", "1y", model.DataTypePrices, fetch)

		assert.ErrorIs(t, err, boom)
		assert.Zero(t, store.Len())
	})

	t.Run("empty prices are not cached", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		logger, _ := testutil.NewTestLogger()
		pc := cache.NewPriceCache(store, time.Hour, logger)
		fetch, calls := countingFetch(model.Series{}, nil)

		for i := 0; i < 2; i++ {
			s, err := pc.GetOrFetch(ctx, "AAPL", "1y", model.DataTypePrices, fetch)
			require.NoError(t, err)
			assert.Zero(t, s.Len())
		}

		assert.Equal(t, 2, *calls)
		assert.Zero(t, store.Len())
	})

	t.Run("empty dividends are cached", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		logger, _ := testutil.NewTestLogger()
		pc := cache.NewPriceCache(store, time.Hour, logger)
		fetch, calls := countingFetch(model.Series{}, nil)

		for i := 0; i < 2; i++ {
			_, err := pc.GetOrFetch(ctx, "AAPL", "1y", model.DataTypeDividends, fetch)
			require.NoError(t, err)
		}

		assert.Equal(t, 1, *calls)
	})

	t.Run("read failure degrades to direct fetch", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.FailGet = true
		logger, hook := testutil.NewTestLogger()
		pc := cache.NewPriceCache(store, time.Hour, logger)
		fetch, calls := countingFetch(series(5), nil)

		s, err := pc.GetOrFetch(ctx, "AAPL", "1y", model.DataTypePrices, fetch)
		require.NoError(t, err)

		assert.Equal(t, []float64{5}, s.Values)
		assert.Equal(t, 1, *calls)
		require.NotEmpty(t, hook.AllEntries())
		assert.Equal(t, "cache degraded: read failed, fetching directly", hook.AllEntries()[0].Message)
	})

	t.Run("write failure still returns the series", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.FailSet = true
		logger, hook := testutil.NewTestLogger()
		pc := cache.NewPriceCache(store, time.Hour, logger)
		fetch, _ := countingFetch(series(5, 6), nil)

		s, err := pc.GetOrFetch(ctx, "AAPL", "1y", model.DataTypePrices, fetch)
		require.NoError(t, err)

		assert.Equal(t, []float64{5, 6}, s.Values)
		assert.Equal(t, "cache degraded: write failed", hook.LastEntry().Message)
	})

	t.Run("corrupt entry is refetched and overwritten", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.Put(cache.Key("AAPL", "1y", model.DataTypePrices), []byte("{not json"))
		logger, hook := testutil.NewTestLogger()
		pc := cache.NewPriceCache(store, time.Hour, logger)
		fetch, calls := countingFetch(series(7), nil)

		s, err := pc.GetOrFetch(ctx, "AAPL", "1y", model.DataTypePrices, fetch)
		require.NoError(t, err)

		assert.Equal(t, []float64{7}, s.Values)
		assert.Equal(t, 1, *calls)
		assert.Equal(t, 1, store.Sets)
		assert.Equal(t, "cache degraded: corrupt entry, fetching directly", hook.AllEntries()[0].Message)
	})

	t.Run("nil store passes through", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger()
		pc := cache.NewPriceCache(nil, 0, logger)
		fetch, calls := countingFetch(series(1, 2), nil)

		for i := 0; i < 2; i++ {
			_, err := pc.GetOrFetch(ctx, "AAPL", "1y", model.DataTypePrices, fetch)
			require.NoError(t, err)
		}

		assert.Equal(t, 2, *calls)
	})
}

func TestKey(t *testing.T) {
	k := cache.Key("AAPL", "1y", model.DataTypePrices)

	assert.Equal(t, k, cache.Key("AAPL", "1y", model.DataTypePrices))
	assert.NotEqual(t, k, cache.Key("AAPL", "1y", model.DataTypeDividends))
	assert.Regexp(t, `^marketdata:[0-9a-f]{64}$`, k)
}
