package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/portfolio-analytics/internal/api/request"
	"github.com/ndewijer/portfolio-analytics/internal/app"
	"github.com/ndewijer/portfolio-analytics/internal/config"
	"github.com/ndewijer/portfolio-analytics/internal/logging"
	"github.com/ndewijer/portfolio-analytics/internal/model"
)

var commands = []subcommands.Command{
	&snapshotCmd{},
	&aumCmd{},
	&backtestCmd{},
}

// withApp loads configuration, builds the application and runs fn with it.
// CLI logs go to stderr so rendered output stays clean.
func withApp(ctx context.Context, fn func(*app.App) error) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	logger := logging.New(cfg.Logging)
	logger.SetOutput(os.Stderr)
	if os.Getenv("LOG_LEVEL") == "" {
		logger.SetLevel(logrus.WarnLevel)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

type snapshotCmd struct {
	all bool
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "record a valuation snapshot of one or more portfolios" }
func (*snapshotCmd) Usage() string {
	return `portfolioctl snapshot [-all] [<portfolio-id>...]

  Values the given portfolios at current prices and stores a snapshot of each.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "snapshot every portfolio")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.all && f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	return withApp(ctx, func(a *app.App) error {
		if c.all {
			result, err := a.Services.Snapshot.SnapshotAll(ctx)
			if err != nil {
				return err
			}
			printMarkdown(snapshotRunMarkdown(result))
			return nil
		}

		var snapshots []model.PortfolioSnapshot
		for _, id := range f.Args() {
			s, err := a.Services.Snapshot.Snapshot(ctx, id)
			if err != nil {
				return fmt.Errorf("portfolio %s: %w", id, err)
			}
			snapshots = append(snapshots, s)
		}
		printMarkdown(snapshotsMarkdown(snapshots))
		return nil
	})
}

type aumCmd struct {
	days   int
	owners string
}

func (*aumCmd) Name() string     { return "aum" }
func (*aumCmd) Synopsis() string { return "display daily assets under management" }
func (*aumCmd) Usage() string {
	return `portfolioctl aum [-days n] [-owner id[,id...]]

  Displays the total of stored snapshots per day over the last n days.
`
}

func (c *aumCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", request.DefaultAUMDays, "number of days including today (1-365)")
	f.StringVar(&c.owners, "owner", "", "comma-separated owner IDs (defaults to all)")
}

func (c *aumCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var owners []string
	if c.owners != "" {
		owners = request.SplitList(c.owners)
	}

	return withApp(ctx, func(a *app.App) error {
		points, err := a.Services.AUM.History(ctx, c.days, owners)
		if err != nil {
			return err
		}
		printMarkdown(aumMarkdown(points))
		return nil
	})
}

type backtestCmd struct {
	period     string
	benchmarks string
}

func (*backtestCmd) Name() string     { return "backtest" }
func (*backtestCmd) Synopsis() string { return "simulate a weighted portfolio against benchmarks" }
func (*backtestCmd) Usage() string {
	return `portfolioctl backtest [-period 1y] [-benchmarks SPY,QQQ] <ticker>=<weight>...

  Simulates the composition over the period and compares it with the benchmarks.
  Example: portfolioctl backtest -period 5y AAPL=0.6 MSFT=0.4
`
}

func (c *backtestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", request.DefaultBacktestPeriod, "1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd or max")
	f.StringVar(&c.benchmarks, "benchmarks", strings.Join(request.DefaultBenchmarks, ","), "comma-separated benchmark tickers")
}

func (c *backtestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	composition, err := parseComposition(f.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	req := model.BacktestRequest{
		Composition: composition,
		Benchmarks:  parseTickers(c.benchmarks),
		Period:      c.period,
	}

	return withApp(ctx, func(a *app.App) error {
		result, err := a.Services.Backtest.Run(ctx, req)
		if err != nil {
			return err
		}
		printMarkdown(backtestMarkdown(result))
		return nil
	})
}

// parseComposition parses arguments of the form TICKER=WEIGHT.
func parseComposition(args []string) ([]model.CompositionEntry, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one <ticker>=<weight> is required")
	}

	composition := make([]model.CompositionEntry, 0, len(args))
	for _, arg := range args {
		ticker, weightStr, ok := strings.Cut(arg, "=")
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if !ok || ticker == "" {
			return nil, fmt.Errorf("invalid composition entry %q, expected <ticker>=<weight>", arg)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", arg, err)
		}
		composition = append(composition, model.CompositionEntry{Ticker: ticker, Weight: weight})
	}
	return composition, nil
}

// parseTickers splits a comma-separated ticker list, normalised like composition tickers.
func parseTickers(list string) []string {
	tickers := request.SplitList(list)
	for i, t := range tickers {
		tickers[i] = strings.ToUpper(t)
	}
	return tickers
}
