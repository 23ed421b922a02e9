package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/cache"
	"github.com/ndewijer/portfolio-analytics/internal/model"
	"github.com/ndewijer/portfolio-analytics/internal/validation"
)

var errNoPriceData = errors.New("no price data returned")

// BacktestService simulates a hypothetical weighted portfolio against benchmark tickers
// using historical prices and dividends.
//
// A run has three phases:
//  1. Validation of the request, before any I/O.
//  2. Concurrent retrieval of the price and dividend series of every distinct ticker,
//     each through the price cache. The first failure cancels all other fetches and
//     fails the run.
//  3. Synchronous computation over the fully materialised series.
type BacktestService struct {
	gateway        MarketDataGateway
	priceCache     *cache.PriceCache
	fetchTimeout   time.Duration
	requestTimeout time.Duration
	logger         logrus.FieldLogger
}

// NewBacktestService creates a new BacktestService.
// fetchTimeout bounds each gateway call and requestTimeout bounds a whole run.
func NewBacktestService(
	gateway MarketDataGateway,
	priceCache *cache.PriceCache,
	fetchTimeout time.Duration,
	requestTimeout time.Duration,
	logger logrus.FieldLogger,
) *BacktestService {
	return &BacktestService{
		gateway:        gateway,
		priceCache:     priceCache,
		fetchTimeout:   fetchTimeout,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

type fetchedSeries struct {
	prices    map[string]model.Series
	dividends map[string]model.Series
}

// Run executes a backtest.
//
// Prices of all tickers are inner-joined on trading date. Daily portfolio returns are
// the weighted sum of constituent returns, and every series compounds from 100.
// Tickers listed more than once in the composition have their weights summed.
//
// Errors:
//   - *apperrors.ValidationError for a malformed request
//   - *apperrors.DataUnavailableError when any series cannot be fetched
//   - apperrors.ErrInsufficientData when fewer than two common trading days remain
func (s *BacktestService) Run(ctx context.Context, req model.BacktestRequest) (model.BacktestResponse, error) {
	if err := validation.ValidateBacktestRequest(req); err != nil {
		return model.BacktestResponse{}, err
	}

	ctx, cancel := withTimeout(ctx, s.requestTimeout)
	defer cancel()

	weights := make(map[string]float64, len(req.Composition))
	var portfolioTickers []string
	for _, entry := range req.Composition {
		if _, ok := weights[entry.Ticker]; !ok {
			portfolioTickers = append(portfolioTickers, entry.Ticker)
		}
		weights[entry.Ticker] += entry.Weight
	}
	sort.Strings(portfolioTickers)

	tickers := distinct(append(append([]string{}, portfolioTickers...), req.Benchmarks...))

	log := s.logger.WithFields(logrus.Fields{
		"period":  req.Period,
		"tickers": len(tickers),
	})
	log.Info("backtest started")

	fetched, err := s.fetchAll(ctx, tickers, req.Period)
	if err != nil {
		log.WithError(err).Warn("backtest data retrieval failed")
		return model.BacktestResponse{}, err
	}

	table := alignPrices(fetched.prices)
	n := len(table.dates)
	if n < 2 {
		return model.BacktestResponse{}, fmt.Errorf("%w: %d common trading days", apperrors.ErrInsufficientData, n)
	}

	returns := make(map[string][]float64, len(tickers))
	for ticker, prices := range table.prices {
		returns[ticker] = pctChange(prices)
	}

	portfolioReturns := weightedReturns(weights, returns, n)
	benchmarkReturns := make(map[string][]float64, len(req.Benchmarks))
	for _, b := range req.Benchmarks {
		benchmarkReturns[b] = returns[b]
	}

	metrics, err := computeMetrics(portfolioReturns, benchmarkReturns)
	if err != nil {
		return model.BacktestResponse{}, err
	}

	portfolioValues := cumulativeValues(portfolioReturns, BacktestStartValue)
	benchmarkValues := make(map[string][]float64, len(benchmarkReturns))
	for b, r := range benchmarkReturns {
		benchmarkValues[b] = cumulativeValues(r, BacktestStartValue)
	}

	events := dividendEvents(fetched.dividends, portfolioTickers)

	dataPoints := make([]model.BacktestDataPoint, n)
	for t, date := range table.dates {
		day := dateKey(date)
		point := model.BacktestDataPoint{
			Date:            day,
			PortfolioValue:  portfolioValues[t],
			BenchmarkValues: make(map[string]float64, len(benchmarkValues)),
			DividendEvents:  events[day],
		}
		if point.DividendEvents == nil {
			point.DividendEvents = []model.DividendEvent{}
		}
		for b, values := range benchmarkValues {
			point.BenchmarkValues[b] = values[t]
		}
		dataPoints[t] = point
	}

	log.WithFields(logrus.Fields{
		"trading_days": n,
		"total_return": metrics.TotalReturn,
	}).Info("backtest finished")

	return model.BacktestResponse{
		StartDate:            dateKey(table.dates[0]),
		EndDate:              dateKey(table.dates[n-1]),
		PortfolioComposition: req.Composition,
		Benchmarks:           req.Benchmarks,
		DataPoints:           dataPoints,
		PerformanceMetrics:   metrics,
	}, nil
}

// fetchAll retrieves prices and dividends of every ticker concurrently.
// Nothing is returned unless every fetch succeeded.
func (s *BacktestService) fetchAll(ctx context.Context, tickers []string, period string) (fetchedSeries, error) {
	result := fetchedSeries{
		prices:    make(map[string]model.Series, len(tickers)),
		dividends: make(map[string]model.Series, len(tickers)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, ticker := range tickers {
		for _, dataType := range []model.DataType{model.DataTypePrices, model.DataTypeDividends} {
			g.Go(func() error {
				series, err := s.priceCache.GetOrFetch(gctx, ticker, period, dataType, func(ctx context.Context) (model.Series, error) {
					fetchCtx, cancel := withTimeout(ctx, s.fetchTimeout)
					defer cancel()

					if dataType == model.DataTypeDividends {
						return s.gateway.Dividends(fetchCtx, ticker, period)
					}
					return s.gateway.HistoricalPrices(fetchCtx, ticker, period)
				})
				if err == nil && dataType == model.DataTypePrices && series.Len() == 0 {
					err = errNoPriceData
				}
				if err != nil {
					return &apperrors.DataUnavailableError{Ticker: ticker, DataType: string(dataType), Err: err}
				}

				mu.Lock()
				defer mu.Unlock()
				if dataType == model.DataTypeDividends {
					result.dividends[ticker] = series
				} else {
					result.prices[ticker] = series
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return fetchedSeries{}, err
	}
	return result, nil
}

// dividendEvents indexes dividends of the given tickers by UTC date.
// Per ticker and date only the first payment is used. Events of one day are ordered by ticker.
func dividendEvents(dividends map[string]model.Series, tickers []string) map[string][]model.DividendEvent {
	events := make(map[string][]model.DividendEvent)
	for _, ticker := range tickers {
		seen := make(map[string]bool)
		series := dividends[ticker]
		for i, d := range series.Dates {
			day := dateKey(d)
			if seen[day] {
				continue
			}
			seen[day] = true
			events[day] = append(events[day], model.DividendEvent{Ticker: ticker, Amount: series.Values[i]})
		}
	}
	return events
}

func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
