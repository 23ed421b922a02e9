package service

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/model"
)

const (
	// TradingDaysPerYear annualizes daily statistics.
	TradingDaysPerYear = 252
	// RiskFreeRate is the annual risk-free rate assumed by the Sharpe ratio.
	RiskFreeRate = 0.02
	// BacktestStartValue is the value every cumulative series starts at.
	BacktestStartValue = 100.0
)

// priceTable holds prices of several tickers on the dates where all of them traded.
type priceTable struct {
	dates  []time.Time
	prices map[string][]float64
}

// alignPrices inner-joins price series on their UTC calendar date and sorts by date.
// When a series has several observations on one day the last one wins.
func alignPrices(series map[string]model.Series) priceTable {
	byDay := make(map[string]map[string]float64, len(series))
	for ticker, s := range series {
		days := make(map[string]float64, s.Len())
		for i, d := range s.Dates {
			days[dateKey(d)] = s.Values[i]
		}
		byDay[ticker] = days
	}

	counts := make(map[string]int)
	for _, days := range byDay {
		for day := range days {
			counts[day]++
		}
	}

	var common []time.Time
	for day, n := range counts {
		if n == len(byDay) {
			d, _ := time.Parse("2006-01-02", day)
			common = append(common, d)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	table := priceTable{dates: common, prices: make(map[string][]float64, len(series))}
	for ticker, days := range byDay {
		values := make([]float64, len(common))
		for i, d := range common {
			values[i] = days[dateKey(d)]
		}
		table.prices[ticker] = values
	}
	return table
}

// pctChange returns the daily relative change of values. The first entry is 0,
// as is any change from a zero price.
func pctChange(values []float64) []float64 {
	changes := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		changes[i] = values[i]/values[i-1] - 1
	}
	return changes
}

// weightedReturns combines per-ticker daily returns into portfolio returns Σ wᵢ·rᵢ[t].
func weightedReturns(weights map[string]float64, returns map[string][]float64, n int) []float64 {
	combined := make([]float64, n)
	for ticker, w := range weights {
		for t, r := range returns[ticker] {
			combined[t] += w * r
		}
	}
	return combined
}

// cumulativeValues compounds daily returns from start: v[t] = start × Π(1+r[0..t]).
func cumulativeValues(returns []float64, start float64) []float64 {
	values := make([]float64, len(returns))
	v := start
	for t, r := range returns {
		v *= 1 + r
		values[t] = v
	}
	return values
}

// maxDrawdown returns the most negative peak-to-trough decline of the compounded
// returns, measured from a starting value of 1.0. It is 0 for a series that never falls.
func maxDrawdown(returns []float64) float64 {
	value, peak, worst := 1.0, 1.0, 0.0
	for _, r := range returns {
		value *= 1 + r
		if value > peak {
			peak = value
		}
		if dd := (value - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// annualize converts a total return over tradingDays into an annual rate.
func annualize(totalReturn float64, tradingDays int) float64 {
	years := float64(tradingDays) / TradingDaysPerYear
	if years <= 0 {
		return 0
	}
	return math.Pow(1+totalReturn, 1/years) - 1
}

// computeMetrics derives full-period statistics from portfolio and benchmark daily returns.
// Returns apperrors.ErrInsufficientData for fewer than two trading days.
func computeMetrics(portfolio []float64, benchmarks map[string][]float64) (model.PerformanceMetrics, error) {
	tradingDays := len(portfolio)
	if tradingDays < 2 {
		return model.PerformanceMetrics{}, apperrors.ErrInsufficientData
	}

	cumulative := cumulativeValues(portfolio, 1.0)
	totalReturn := cumulative[tradingDays-1] - 1
	annualized := annualize(totalReturn, tradingDays)

	volatility := stat.StdDev(portfolio, nil) * math.Sqrt(TradingDaysPerYear)

	sharpe := 0.0
	if volatility > 0 {
		dailyRiskFree := RiskFreeRate / TradingDaysPerYear
		excess := make([]float64, tradingDays)
		for i, r := range portfolio {
			excess[i] = r - dailyRiskFree
		}
		sharpe = stat.Mean(excess, nil) * TradingDaysPerYear / volatility
	}

	metrics := model.PerformanceMetrics{
		TotalReturn:            totalReturn,
		AnnualizedReturn:       annualized,
		AnnualizedVolatility:   volatility,
		SharpeRatio:            sharpe,
		MaxDrawdown:            maxDrawdown(portfolio),
		StartValue:             BacktestStartValue,
		EndValue:               BacktestStartValue * (1 + totalReturn),
		TradingDays:            tradingDays,
		RiskFreeRateAssumption: RiskFreeRate,
		Benchmarks:             make(map[string]model.BenchmarkComparison, len(benchmarks)),
	}

	for ticker, returns := range benchmarks {
		benchCumulative := cumulativeValues(returns, 1.0)
		benchTotal := benchCumulative[len(benchCumulative)-1] - 1
		benchAnnualized := annualize(benchTotal, tradingDays)

		metrics.Benchmarks[ticker] = model.BenchmarkComparison{
			TotalReturn:      benchTotal,
			AnnualizedReturn: benchAnnualized,
			VsBenchmark:      totalReturn - benchTotal,
			AlphaVsBenchmark: annualized - benchAnnualized,
		}
	}

	return metrics, nil
}
