package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-analytics/internal/model"
)

func TestParseComposition(t *testing.T) {
	t.Run("parses ticker weight pairs", func(t *testing.T) {
		got, err := parseComposition([]string{"aapl=0.6", "MSFT=0.4"})
		require.NoError(t, err)
		assert.Equal(t, []model.CompositionEntry{
			{Ticker: "AAPL", Weight: 0.6},
			{Ticker: "MSFT", Weight: 0.4},
		}, got)
	})

	t.Run("trims tickers and weights", func(t *testing.T) {
		got, err := parseComposition([]string{" vti = 1 "})
		require.NoError(t, err)
		assert.Equal(t, []model.CompositionEntry{{Ticker: "VTI", Weight: 1}}, got)
	})

	t.Run("rejects missing weight", func(t *testing.T) {
		_, err := parseComposition([]string{"AAPL"})
		assert.Error(t, err)
	})

	t.Run("rejects non-numeric weight", func(t *testing.T) {
		_, err := parseComposition([]string{"AAPL=half"})
		assert.Error(t, err)
	})

	t.Run("requires at least one entry", func(t *testing.T) {
		_, err := parseComposition(nil)
		assert.Error(t, err)
	})
}

func TestParseTickers(t *testing.T) {
	t.Run("trims and upper-cases like composition tickers", func(t *testing.T) {
		assert.Equal(t, []string{"SPY", "QQQ"}, parseTickers("spy, qqq"))
	})

	t.Run("drops empty parts", func(t *testing.T) {
		assert.Equal(t, []string{"SPY"}, parseTickers("SPY,, ,"))
	})

	t.Run("empty list stays empty for validation to reject", func(t *testing.T) {
		assert.Empty(t, parseTickers(""))
	})
}

func TestAUMMarkdown(t *testing.T) {
	t.Run("empty window says so", func(t *testing.T) {
		assert.Contains(t, aumMarkdown(nil), "No snapshots")
	})

	t.Run("one row per day", func(t *testing.T) {
		md := aumMarkdown([]model.AUMPoint{{Date: "2024-01-01", Value: 300}, {Date: "2024-01-02", Value: 310.5}})
		assert.Contains(t, md, "| 2024-01-01 | 300.00 |")
		assert.Contains(t, md, "| 2024-01-02 | 310.50 |")
	})
}
