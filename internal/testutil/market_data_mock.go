package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/model"
)

// MockMarketData is an in-memory MarketDataGateway for tests.
// It is safe for concurrent use and counts calls per ticker and data type.
//
// Example usage:
//
//	md := testutil.NewMockMarketData().
//	    WithCurrentPrice("AAPL", 150).
//	    WithPrices("SPY", testutil.Days(start, 3), 100, 101, 99)
type MockMarketData struct {
	mu        sync.Mutex
	current   map[string]decimal.Decimal
	prices    map[string]model.Series
	dividends map[string]model.Series
	errs      map[string]error
	delay     time.Duration
	delays    map[string]time.Duration
	calls     map[string]int
	cancelled map[string]int
}

// NewMockMarketData creates an empty mock. Unknown tickers return apperrors.ErrSymbolNotFound.
func NewMockMarketData() *MockMarketData {
	return &MockMarketData{
		current:   make(map[string]decimal.Decimal),
		prices:    make(map[string]model.Series),
		dividends: make(map[string]model.Series),
		errs:      make(map[string]error),
		delays:    make(map[string]time.Duration),
		calls:     make(map[string]int),
		cancelled: make(map[string]int),
	}
}

// WithCurrentPrice sets the current price of ticker.
func (m *MockMarketData) WithCurrentPrice(ticker string, price float64) *MockMarketData {
	m.current[ticker] = decimal.NewFromFloat(price)
	return m
}

// WithPrices sets the daily closes of ticker on the given dates.
func (m *MockMarketData) WithPrices(ticker string, dates []time.Time, values ...float64) *MockMarketData {
	if len(dates) != len(values) {
		panic(fmt.Sprintf("WithPrices(%s): %d dates, %d values", ticker, len(dates), len(values)))
	}
	m.prices[ticker] = model.Series{Dates: dates, Values: values}
	if _, ok := m.dividends[ticker]; !ok {
		m.dividends[ticker] = model.Series{}
	}
	return m
}

// WithDividend adds a dividend of amount paid by ticker on date.
func (m *MockMarketData) WithDividend(ticker string, date time.Time, amount float64) *MockMarketData {
	s := m.dividends[ticker]
	s.Dates = append(s.Dates, date)
	s.Values = append(s.Values, amount)
	m.dividends[ticker] = s
	return m
}

// WithError makes every call for ticker fail with err.
func (m *MockMarketData) WithError(ticker string, err error) *MockMarketData {
	m.errs[ticker] = err
	return m
}

// WithDelay makes every call wait d or until its context is done.
func (m *MockMarketData) WithDelay(d time.Duration) *MockMarketData {
	m.delay = d
	return m
}

// WithTickerDelay makes calls for ticker wait d or until their context is done.
// It takes precedence over WithDelay, so a zero d lets one ticker fail fast
// while the others block.
func (m *MockMarketData) WithTickerDelay(ticker string, d time.Duration) *MockMarketData {
	m.delays[ticker] = d
	return m
}

// Cancelled returns how many calls for ticker gave up because their context was done.
func (m *MockMarketData) Cancelled(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled[ticker]
}

// Calls returns how often kind ("current", "prices" or "dividends") was requested for ticker.
func (m *MockMarketData) Calls(ticker, kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[kind+":"+ticker]
}

// TotalCalls returns the number of gateway calls made.
func (m *MockMarketData) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *MockMarketData) begin(ctx context.Context, ticker, kind string) error {
	m.mu.Lock()
	m.calls[kind+":"+ticker]++
	err := m.errs[ticker]
	delay, ok := m.delays[ticker]
	if !ok {
		delay = m.delay
	}
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			m.mu.Lock()
			m.cancelled[ticker]++
			m.mu.Unlock()
			return ctx.Err()
		}
	}
	return err
}

func (m *MockMarketData) CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	if err := m.begin(ctx, ticker, "current"); err != nil {
		return decimal.Zero, err
	}
	price, ok := m.current[ticker]
	if !ok {
		return decimal.Zero, apperrors.ErrSymbolNotFound
	}
	return price, nil
}

func (m *MockMarketData) HistoricalPrices(ctx context.Context, ticker, _ string) (model.Series, error) {
	if err := m.begin(ctx, ticker, "prices"); err != nil {
		return model.Series{}, err
	}
	series, ok := m.prices[ticker]
	if !ok {
		return model.Series{}, apperrors.ErrSymbolNotFound
	}
	return series, nil
}

func (m *MockMarketData) Dividends(ctx context.Context, ticker, _ string) (model.Series, error) {
	if err := m.begin(ctx, ticker, "dividends"); err != nil {
		return model.Series{}, err
	}
	series, ok := m.dividends[ticker]
	if !ok {
		return model.Series{}, apperrors.ErrSymbolNotFound
	}
	return series, nil
}

// Days returns n consecutive UTC dates starting at start, one per day.
func Days(start time.Time, n int) []time.Time {
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.UTC().AddDate(0, 0, i)
	}
	return days
}
