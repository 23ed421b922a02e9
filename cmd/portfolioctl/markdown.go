package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ndewijer/portfolio-analytics/internal/model"
)

func snapshotsMarkdown(snapshots []model.PortfolioSnapshot) string {
	var b strings.Builder
	b.WriteString("# Snapshots\n\n")
	b.WriteString("| Portfolio | Value | Timestamp |\n|---|---:|---|\n")
	for _, s := range snapshots {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", s.PortfolioID, s.Value.StringFixed(2), s.Timestamp.Format("2006-01-02 15:04:05Z"))
	}
	return b.String()
}

func snapshotRunMarkdown(result model.SnapshotRunResult) string {
	var b strings.Builder
	b.WriteString("# Snapshot run\n\n")
	fmt.Fprintf(&b, "- Created: **%d**\n- Failed: **%d**\n", result.Created, result.Failed)
	if len(result.Errors) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	return b.String()
}

func aumMarkdown(points []model.AUMPoint) string {
	var b strings.Builder
	b.WriteString("# Assets under management\n\n")
	if len(points) == 0 {
		b.WriteString("_No snapshots in this window._\n")
		return b.String()
	}
	b.WriteString("| Date | Value |\n|---|---:|\n")
	for _, p := range points {
		fmt.Fprintf(&b, "| %s | %.2f |\n", p.Date, p.Value)
	}
	return b.String()
}

func backtestMarkdown(r model.BacktestResponse) string {
	m := r.PerformanceMetrics
	var b strings.Builder

	fmt.Fprintf(&b, "# Backtest %s to %s\n\n", r.StartDate, r.EndDate)

	b.WriteString("## Composition\n\n| Ticker | Weight |\n|---|---:|\n")
	for _, c := range r.PortfolioComposition {
		fmt.Fprintf(&b, "| %s | %.1f%% |\n", c.Ticker, c.Weight*100)
	}

	b.WriteString("\n## Performance\n\n| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Total return | %.2f%% |\n", m.TotalReturn*100)
	fmt.Fprintf(&b, "| Annualized return | %.2f%% |\n", m.AnnualizedReturn*100)
	fmt.Fprintf(&b, "| Annualized volatility | %.2f%% |\n", m.AnnualizedVolatility*100)
	fmt.Fprintf(&b, "| Sharpe ratio | %.2f |\n", m.SharpeRatio)
	fmt.Fprintf(&b, "| Max drawdown | %.2f%% |\n", m.MaxDrawdown*100)
	fmt.Fprintf(&b, "| End value | %.2f |\n", m.EndValue)
	fmt.Fprintf(&b, "| Trading days | %d |\n", m.TradingDays)

	benchmarks := make([]string, 0, len(m.Benchmarks))
	for name := range m.Benchmarks {
		benchmarks = append(benchmarks, name)
	}
	sort.Strings(benchmarks)

	if len(benchmarks) > 0 {
		b.WriteString("\n## Benchmarks\n\n| Ticker | Total return | vs portfolio | Alpha |\n|---|---:|---:|---:|\n")
		for _, name := range benchmarks {
			c := m.Benchmarks[name]
			fmt.Fprintf(&b, "| %s | %.2f%% | %+.2f%% | %+.2f%% |\n", name, c.TotalReturn*100, c.VsBenchmark*100, c.AlphaVsBenchmark*100)
		}
	}
	return b.String()
}
