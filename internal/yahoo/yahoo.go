package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/model"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// DefaultBackoff is the initial delay between retries.
const DefaultBackoff = 500 * time.Millisecond

// FinanceClient provides methods for fetching financial data from Yahoo Finance API.
// It implements the market data gateway used by the valuation and backtest services.
// Transient failures (network errors, 429 and 5xx responses) are retried with
// exponential backoff; unknown symbols are not.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
	maxRetries uint64
	backoff    time.Duration
}

// Option configures a FinanceClient.
type Option func(*FinanceClient)

// WithBaseURL points the client at a different chart endpoint. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *FinanceClient) { c.baseURL = baseURL }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *FinanceClient) { c.httpClient = httpClient }
}

// WithRetries sets how often a transient failure is retried and the initial backoff.
func WithRetries(maxRetries uint64, backoff time.Duration) Option {
	return func(c *FinanceClient) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// NewFinanceClient creates a new Yahoo Finance client.
// By default it retries twice starting at DefaultBackoff.
func NewFinanceClient(opts ...Option) *FinanceClient {
	c := &FinanceClient{
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
		maxRetries: 2,
		backoff:    DefaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentPrice returns the latest market price for ticker.
// It prefers the regular market price from the chart metadata and falls back
// to the most recent close of the last five trading days.
func (c *FinanceClient) CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	chart, err := c.chart(ctx, ticker, url.Values{"interval": {"1d"}, "range": {"5d"}})
	if err != nil {
		return decimal.Zero, err
	}

	if chart.MarketPrice != nil && *chart.MarketPrice > 0 {
		return decimal.NewFromFloat(*chart.MarketPrice), nil
	}
	if len(chart.Closes) == 0 {
		return decimal.Zero, fmt.Errorf("no recent price for %s: %w", ticker, apperrors.ErrSymbolNotFound)
	}
	return decimal.NewFromFloat(chart.Closes[len(chart.Closes)-1].Price), nil
}

// HistoricalPrices returns daily closes for ticker over period (e.g. "1y", "max").
func (c *FinanceClient) HistoricalPrices(ctx context.Context, ticker, period string) (model.Series, error) {
	chart, err := c.chart(ctx, ticker, url.Values{"interval": {"1d"}, "range": {period}})
	if err != nil {
		return model.Series{}, err
	}

	series := model.Series{
		Dates:  make([]time.Time, len(chart.Closes)),
		Values: make([]float64, len(chart.Closes)),
	}
	for i, cl := range chart.Closes {
		series.Dates[i] = cl.Date
		series.Values[i] = cl.Price
	}
	return series, nil
}

// Dividends returns dividends paid per share by ticker over period.
// An empty series is valid: most tickers pay no dividend on most days.
func (c *FinanceClient) Dividends(ctx context.Context, ticker, period string) (model.Series, error) {
	chart, err := c.chart(ctx, ticker, url.Values{"interval": {"1d"}, "range": {period}, "events": {"div"}})
	if err != nil {
		return model.Series{}, err
	}

	series := model.Series{
		Dates:  make([]time.Time, len(chart.Dividends)),
		Values: make([]float64, len(chart.Dividends)),
	}
	for i, div := range chart.Dividends {
		series.Dates[i] = div.Date
		series.Values[i] = div.Amount
	}
	return series, nil
}

// ParseChart converts a raw Yahoo Finance API response into a structured price chart.
// Null closes (non-trading days, halts) are dropped and dividends are sorted by date.
func ParseChart(yahooResult Response) (PriceChart, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return PriceChart{}, fmt.Errorf("no results returned: %w", apperrors.ErrSymbolNotFound)
	}
	result := yahooResult.Chart.Result[0]

	chart := PriceChart{
		Symbol:       result.Meta.Symbol,
		Currency:     result.Meta.Currency,
		ExchangeName: result.Meta.ExchangeName,
		MarketPrice:  result.Meta.RegularMarketPrice,
	}

	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		if len(closes) != len(result.Timestamp) {
			return PriceChart{}, fmt.Errorf("mismatched data lengths: %d timestamps, %d closes", len(result.Timestamp), len(closes))
		}
		for i, ts := range result.Timestamp {
			if closes[i] == nil {
				continue
			}
			chart.Closes = append(chart.Closes, Close{Date: time.Unix(ts, 0).UTC(), Price: *closes[i]})
		}
	}

	for _, div := range result.Events.Dividends {
		chart.Dividends = append(chart.Dividends, Dividend{Date: time.Unix(div.Date, 0).UTC(), Amount: div.Amount})
	}
	sort.Slice(chart.Dividends, func(i, j int) bool {
		return chart.Dividends[i].Date.Before(chart.Dividends[j].Date)
	})

	return chart, nil
}

func (c *FinanceClient) chart(ctx context.Context, ticker string, params url.Values) (PriceChart, error) {
	endpoint := c.baseURL + url.PathEscape(ticker) + "?" + params.Encode()

	var response Response
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		response, err = c.queryYahoo(ctx, endpoint)
		return err
	})
	if err != nil {
		return PriceChart{}, fmt.Errorf("yahoo chart for %s: %w", ticker, err)
	}

	return ParseChart(response)
}

// queryYahoo executes a single request against the chart API.
// Errors worth retrying are wrapped with retry.RetryableError.
func (c *FinanceClient) queryYahoo(ctx context.Context, endpoint string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, retry.RetryableError(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return Response{}, retry.RetryableError(fmt.Errorf("yahoo returned status %d", resp.StatusCode))
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, fmt.Errorf("failed to decode yahoo response (status %d): %w", resp.StatusCode, err)
	}

	if response.Chart.Error != nil {
		if resp.StatusCode == http.StatusNotFound || response.Chart.Error.Code == "Not Found" {
			return response, fmt.Errorf("%s: %w", response.Chart.Error.Description, apperrors.ErrSymbolNotFound)
		}
		return response, fmt.Errorf("yahoo error %s: %s", response.Chart.Error.Code, response.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return response, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	return response, nil
}
