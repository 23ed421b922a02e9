package yahoo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/yahoo"
)

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"currency": "USD", "symbol": "AAPL", "exchangeName": "NMS", "regularMarketPrice": 189.5},
      "timestamp": [1704205800, 1704292200, 1704378600],
      "indicators": {"quote": [{"close": [185.64, null, 181.91]}]},
      "events": {"dividends": {
        "1707489000": {"amount": 0.24, "date": 1707489000},
        "1699626600": {"amount": 0.24, "date": 1699626600}
      }}
    }],
    "error": null
  }
}`

const notFoundBody = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

// newTestClient starts a chart API stub answering every request with handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *yahoo.FinanceClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return yahoo.NewFinanceClient(
		yahoo.WithBaseURL(srv.URL+"/"),
		yahoo.WithRetries(2, time.Millisecond),
	)
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// TestFinanceClient_HistoricalPrices tests parsing of daily closes.
//
// WHY: Yahoo reports null closes for days without a trade. Those days must be
// dropped rather than read as a price of zero, which would wreck returns.
func TestFinanceClient_HistoricalPrices(t *testing.T) {
	ctx := context.Background()

	t.Run("drops null closes", func(t *testing.T) {
		var query string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			respond(http.StatusOK, chartBody)(w, r)
		})

		series, err := client.HistoricalPrices(ctx, "AAPL", "1y")
		require.NoError(t, err)

		assert.Equal(t, []float64{185.64, 181.91}, series.Values)
		require.Len(t, series.Dates, 2)
		assert.Equal(t, "2024-01-02", series.Dates[0].Format("2006-01-02"))
		assert.Equal(t, time.UTC, series.Dates[0].Location())
		assert.Contains(t, query, "range=1y")
		assert.Contains(t, query, "interval=1d")
	})

	t.Run("unknown symbol is not retried", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			respond(http.StatusNotFound, notFoundBody)(w, r)
		})

		_, err := client.HistoricalPrices(ctx, "NOPE", "1y")

		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("server errors are retried", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				respond(http.StatusInternalServerError, "oops")(w, r)
				return
			}
			respond(http.StatusOK, chartBody)(w, r)
		})

		series, err := client.HistoricalPrices(ctx, "AAPL", "1y")
		require.NoError(t, err)

		assert.Equal(t, 2, series.Len())
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			respond(http.StatusTooManyRequests, "slow down")(w, r)
		})

		_, err := client.HistoricalPrices(ctx, "AAPL", "1y")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("empty result set", func(t *testing.T) {
		client := newTestClient(t, respond(http.StatusOK, `{"chart":{"result":[],"error":null}}`))

		_, err := client.HistoricalPrices(ctx, "AAPL", "1y")

		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
	})

	t.Run("cancelled context stops the request", func(t *testing.T) {
		client := newTestClient(t, respond(http.StatusOK, chartBody))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := client.HistoricalPrices(cctx, "AAPL", "1y")

		assert.Error(t, err)
	})
}

func TestFinanceClient_Dividends(t *testing.T) {
	ctx := context.Background()

	t.Run("sorted by date", func(t *testing.T) {
		var query string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			respond(http.StatusOK, chartBody)(w, r)
		})

		series, err := client.Dividends(ctx, "AAPL", "5y")
		require.NoError(t, err)

		require.Equal(t, 2, series.Len())
		assert.True(t, series.Dates[0].Before(series.Dates[1]))
		assert.Equal(t, []float64{0.24, 0.24}, series.Values)
		assert.Contains(t, query, "events=div")
	})

	t.Run("no dividends is an empty series", func(t *testing.T) {
		body := `{"chart":{"result":[{"meta":{"symbol":"BRK-B"},"timestamp":[1704205800],"indicators":{"quote":[{"close":[360.1]}]}}],"error":null}}`
		client := newTestClient(t, respond(http.StatusOK, body))

		series, err := client.Dividends(ctx, "BRK-B", "1y")
		require.NoError(t, err)
		assert.Zero(t, series.Len())
	})
}

func TestFinanceClient_CurrentPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers the regular market price", func(t *testing.T) {
		client := newTestClient(t, respond(http.StatusOK, chartBody))

		price, err := client.CurrentPrice(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "189.5", price.String())
	})

	t.Run("falls back to the last close", func(t *testing.T) {
		body := `{"chart":{"result":[{"meta":{"symbol":"VWRL.AS"},"timestamp":[1704205800,1704292200],"indicators":{"quote":[{"close":[101.2,102.75]}]}}],"error":null}}`
		client := newTestClient(t, respond(http.StatusOK, body))

		price, err := client.CurrentPrice(ctx, "VWRL.AS")
		require.NoError(t, err)
		assert.Equal(t, "102.75", price.String())
	})

	t.Run("no data at all", func(t *testing.T) {
		body := `{"chart":{"result":[{"meta":{"symbol":"X"},"timestamp":[],"indicators":{"quote":[{"close":[]}]}}],"error":null}}`
		client := newTestClient(t, respond(http.StatusOK, body))

		_, err := client.CurrentPrice(ctx, "X")
		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
	})
}

func TestParseChart(t *testing.T) {
	t.Run("mismatched lengths", func(t *testing.T) {
		var resp yahoo.Response
		body := `{"chart":{"result":[{"meta":{"symbol":"X"},"timestamp":[1,2],"indicators":{"quote":[{"close":[1.0]}]}}]}}`
		require.NoError(t, json.Unmarshal([]byte(body), &resp))

		_, err := yahoo.ParseChart(resp)
		assert.ErrorContains(t, err, "mismatched data lengths")
	})

	t.Run("metadata", func(t *testing.T) {
		var resp yahoo.Response
		require.NoError(t, json.Unmarshal([]byte(chartBody), &resp))

		chart, err := yahoo.ParseChart(resp)
		require.NoError(t, err)

		assert.Equal(t, "AAPL", chart.Symbol)
		assert.Equal(t, "USD", chart.Currency)
		assert.Equal(t, "NMS", chart.ExchangeName)
		require.NotNil(t, chart.MarketPrice)
		assert.Equal(t, 189.5, *chart.MarketPrice)
	})
}
