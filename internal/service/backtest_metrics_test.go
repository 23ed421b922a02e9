package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/model"
)

func TestPctChange(t *testing.T) {
	t.Run("first change is zero", func(t *testing.T) {
		got := pctChange([]float64{100, 110, 99})
		require.Len(t, got, 3)
		assert.Equal(t, 0.0, got[0])
		assert.InDelta(t, 0.1, got[1], 1e-12)
		assert.InDelta(t, -0.1, got[2], 1e-12)
	})

	t.Run("change from zero price is zero", func(t *testing.T) {
		got := pctChange([]float64{0, 10, 20})
		assert.Equal(t, []float64{0, 0, 1}, got)
	})
}

func TestMaxDrawdown(t *testing.T) {
	t.Run("monotonic series has no drawdown", func(t *testing.T) {
		assert.Equal(t, 0.0, maxDrawdown([]float64{0, 0.01, 0.02, 0.0}))
	})

	t.Run("halving is minus fifty percent", func(t *testing.T) {
		assert.InDelta(t, -0.5, maxDrawdown([]float64{0, -0.5}), 1e-12)
	})

	t.Run("measured from the running peak", func(t *testing.T) {
		// 1.0 -> 2.0 -> 1.5 -> 3.0 -> 1.5
		got := maxDrawdown([]float64{1, -0.25, 1, -0.5})
		assert.InDelta(t, -0.5, got, 1e-12)
	})

	t.Run("never positive", func(t *testing.T) {
		assert.LessOrEqual(t, maxDrawdown([]float64{0.3, -0.1, 0.2, -0.05}), 0.0)
	})
}

func TestAnnualize(t *testing.T) {
	assert.InDelta(t, 0.1, annualize(0.1, TradingDaysPerYear), 1e-12)
	assert.InDelta(t, 0.21, annualize(0.1, TradingDaysPerYear/2), 1e-12)
	assert.Equal(t, 0.0, annualize(0.5, 0))
}

func TestAlignPrices(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 21, 0, 0, 0, time.UTC) }

	table := alignPrices(map[string]model.Series{
		"A": {Dates: []time.Time{day(3), day(1), day(2)}, Values: []float64{3, 1, 2}},
		"B": {Dates: []time.Time{day(2), day(3), day(4)}, Values: []float64{20, 30, 40}},
	})

	require.Len(t, table.dates, 2)
	assert.Equal(t, "2024-01-02", dateKey(table.dates[0]))
	assert.Equal(t, "2024-01-03", dateKey(table.dates[1]))
	assert.Equal(t, []float64{2, 3}, table.prices["A"])
	assert.Equal(t, []float64{20, 30}, table.prices["B"])
}

func TestComputeMetrics(t *testing.T) {
	t.Run("volatility and sharpe", func(t *testing.T) {
		returns := []float64{0, 0.1, -0.1}

		m, err := computeMetrics(returns, nil)
		require.NoError(t, err)

		// sample standard deviation of {0, 0.1, -0.1} is 0.1
		wantVol := 0.1 * math.Sqrt(TradingDaysPerYear)
		assert.InDelta(t, wantVol, m.AnnualizedVolatility, 1e-9)

		wantSharpe := (0 - RiskFreeRate/TradingDaysPerYear) * TradingDaysPerYear / wantVol
		assert.InDelta(t, wantSharpe, m.SharpeRatio, 1e-9)
		assert.InDelta(t, 1.1*0.9-1, m.TotalReturn, 1e-12)
		assert.InDelta(t, BacktestStartValue*(1.1*0.9), m.EndValue, 1e-9)
		assert.NotNil(t, m.Benchmarks)
	})

	t.Run("sharpe is zero without volatility", func(t *testing.T) {
		m, err := computeMetrics([]float64{0, 0, 0}, map[string][]float64{"SPY": {0, 0.01, 0.01}})
		require.NoError(t, err)

		assert.Equal(t, 0.0, m.AnnualizedVolatility)
		assert.Equal(t, 0.0, m.SharpeRatio)
		assert.InDelta(t, -(1.01*1.01 - 1), m.Benchmarks["SPY"].VsBenchmark, 1e-12)
	})

	t.Run("single day is insufficient", func(t *testing.T) {
		_, err := computeMetrics([]float64{0}, nil)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
	})
}
