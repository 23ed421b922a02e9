package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/model"
	"github.com/ndewijer/portfolio-analytics/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// ValuationService computes the current market value of portfolios from live prices.
//
// Valuation is all-or-nothing: if the price of any held ticker cannot be retrieved
// the whole valuation fails with an *apperrors.DataUnavailableError. There is no
// fallback to purchase prices, so a valuation is never silently partial.
type ValuationService struct {
	portfolioRepo *repository.PortfolioRepository
	gateway       MarketDataGateway
	fetchTimeout  time.Duration
	logger        logrus.FieldLogger
	now           func() time.Time
}

// NewValuationService creates a new ValuationService.
// fetchTimeout bounds each individual price lookup.
func NewValuationService(
	portfolioRepo *repository.PortfolioRepository,
	gateway MarketDataGateway,
	fetchTimeout time.Duration,
	logger logrus.FieldLogger,
) *ValuationService {
	return &ValuationService{
		portfolioRepo: portfolioRepo,
		gateway:       gateway,
		fetchTimeout:  fetchTimeout,
		logger:        logger,
		now:           time.Now,
	}
}

// Valuate loads a portfolio and its positions and values them at current prices.
//
// The calculation:
//   - market value = Σ quantity × current price
//   - cost basis   = Σ quantity × purchase price
//   - P&L          = market value − cost basis
//   - P&L %        = P&L / cost basis × 100 (0 when cost basis is 0)
//
// All monetary results are rounded to cents. A portfolio without positions values at zero.
//
// Returns apperrors.ErrPortfolioNotFound for an unknown ID.
func (s *ValuationService) Valuate(ctx context.Context, portfolioID string) (model.Valuation, error) {
	portfolio, err := s.portfolioRepo.GetPortfolioOnID(ctx, portfolioID)
	if err != nil {
		return model.Valuation{}, err
	}
	return s.valuatePortfolio(ctx, portfolio)
}

func (s *ValuationService) valuatePortfolio(ctx context.Context, portfolio model.Portfolio) (model.Valuation, error) {
	positions, err := s.portfolioRepo.GetPositions(ctx, portfolio.ID)
	if err != nil {
		return model.Valuation{}, fmt.Errorf("failed to load positions: %w", err)
	}

	prices, err := s.currentPrices(ctx, positions)
	if err != nil {
		return model.Valuation{}, err
	}

	marketValue := decimal.Zero
	costBasis := decimal.Zero
	for _, p := range positions {
		marketValue = marketValue.Add(p.Quantity.Mul(prices[p.Ticker]))
		costBasis = costBasis.Add(p.Quantity.Mul(p.PurchasePrice))
	}

	pnl := marketValue.Sub(costBasis)
	pnlPct := decimal.Zero
	if costBasis.IsPositive() {
		pnlPct = pnl.Div(costBasis).Mul(hundred)
	}

	return model.Valuation{
		PortfolioID:        portfolio.ID,
		PortfolioName:      portfolio.Name,
		TotalValue:         marketValue.Round(2),
		TotalCostBasis:     costBasis.Round(2),
		TotalPnL:           pnl.Round(2),
		TotalPnLPercentage: pnlPct.Round(2),
		PositionsCount:     len(positions),
		LastUpdated:        s.now().UTC(),
	}, nil
}

// currentPrices fetches the price of every distinct ticker concurrently.
// The first failure cancels the remaining lookups.
func (s *ValuationService) currentPrices(ctx context.Context, positions []model.Position) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(positions))
	if len(positions) == 0 {
		return prices, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	requested := make(map[string]bool, len(positions))

	for _, p := range positions {
		if requested[p.Ticker] {
			continue
		}
		requested[p.Ticker] = true
		ticker := p.Ticker

		g.Go(func() error {
			fetchCtx, cancel := withTimeout(gctx, s.fetchTimeout)
			defer cancel()

			price, err := s.gateway.CurrentPrice(fetchCtx, ticker)
			if err != nil {
				s.logger.WithError(err).WithField("ticker", ticker).Warn("current price unavailable")
				return &apperrors.DataUnavailableError{Ticker: ticker, DataType: "current price", Err: err}
			}

			mu.Lock()
			prices[ticker] = price
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prices, nil
}
