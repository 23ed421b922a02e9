package request

import (
	"github.com/ndewijer/portfolio-analytics/internal/model"
)

// DefaultBacktestPeriod is used when a backtest request omits the period.
const DefaultBacktestPeriod = "1y"

// DefaultBenchmarks is used when a backtest request omits the benchmarks field.
var DefaultBenchmarks = []string{"SPY"}

// BacktestRequest is the JSON body of POST /api/backtest.
type BacktestRequest struct {
	Composition []CompositionEntry `json:"composition"`
	Benchmarks  []string           `json:"benchmarks"`
	Period      string             `json:"period"`
}

// CompositionEntry is one ticker/weight pair of the requested portfolio.
type CompositionEntry struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

// ToModel applies defaults and converts the request for the backtest service.
// A missing benchmarks field defaults to SPY; an explicit empty list is kept
// so that validation rejects it.
func (r BacktestRequest) ToModel() model.BacktestRequest {
	period := r.Period
	if period == "" {
		period = DefaultBacktestPeriod
	}

	benchmarks := r.Benchmarks
	if benchmarks == nil {
		benchmarks = append([]string(nil), DefaultBenchmarks...)
	}

	composition := make([]model.CompositionEntry, len(r.Composition))
	for i, c := range r.Composition {
		composition[i] = model.CompositionEntry{Ticker: c.Ticker, Weight: c.Weight}
	}

	return model.BacktestRequest{
		Composition: composition,
		Benchmarks:  benchmarks,
		Period:      period,
	}
}
