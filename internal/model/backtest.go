package model

import "time"

// DataType identifies which market data series is requested for a ticker.
type DataType string

const (
	DataTypePrices    DataType = "prices"
	DataTypeDividends DataType = "dividends"
)

// Series is a time-indexed series of values, e.g. daily close prices or
// dividend payments. Dates and Values always have the same length.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of observations in the series.
func (s Series) Len() int {
	return len(s.Dates)
}

// CompositionEntry is one ticker/weight pair of a hypothetical portfolio.
// Weight is a fraction in [0, 1].
type CompositionEntry struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

// BacktestRequest describes a hypothetical composition to simulate against benchmarks.
type BacktestRequest struct {
	Composition []CompositionEntry `json:"composition"`
	Benchmarks  []string           `json:"benchmarks"`
	Period      string             `json:"period"` // 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max
}

// DividendEvent is a dividend paid by a constituent ticker on a trading day.
type DividendEvent struct {
	Ticker string  `json:"ticker"`
	Amount float64 `json:"amount"`
}

// BacktestDataPoint is the state of the simulation on a single trading day.
type BacktestDataPoint struct {
	Date            string             `json:"date"`
	PortfolioValue  float64            `json:"portfolioValue"`
	BenchmarkValues map[string]float64 `json:"benchmarkValues"`
	DividendEvents  []DividendEvent    `json:"dividendEvents"`
}

// BenchmarkComparison compares the portfolio with a single benchmark ticker.
type BenchmarkComparison struct {
	TotalReturn      float64 `json:"totalReturn"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	VsBenchmark      float64 `json:"vsBenchmark"`      // portfolio total return minus benchmark total return
	AlphaVsBenchmark float64 `json:"alphaVsBenchmark"` // portfolio annualized return minus benchmark annualized return
}

// PerformanceMetrics are full-period statistics derived from the portfolio's daily returns.
// They are computed per backtest and never persisted.
type PerformanceMetrics struct {
	TotalReturn            float64                        `json:"totalReturn"`
	AnnualizedReturn       float64                        `json:"annualizedReturn"`
	AnnualizedVolatility   float64                        `json:"annualizedVolatility"`
	SharpeRatio            float64                        `json:"sharpeRatio"`
	MaxDrawdown            float64                        `json:"maxDrawdown"`
	StartValue             float64                        `json:"startValue"`
	EndValue               float64                        `json:"endValue"`
	TradingDays            int                            `json:"tradingDays"`
	RiskFreeRateAssumption float64                        `json:"riskFreeRateAssumption"`
	Benchmarks             map[string]BenchmarkComparison `json:"benchmarks"`
}

// BacktestResponse is the assembled result of a backtest run.
type BacktestResponse struct {
	StartDate            string              `json:"startDate"`
	EndDate              string              `json:"endDate"`
	PortfolioComposition []CompositionEntry  `json:"portfolioComposition"`
	Benchmarks           []string            `json:"benchmarks"`
	DataPoints           []BacktestDataPoint `json:"dataPoints"`
	PerformanceMetrics   PerformanceMetrics  `json:"performanceMetrics"`
}
