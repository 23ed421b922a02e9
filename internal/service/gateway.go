package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-analytics/internal/model"
)

// MarketDataGateway is the external source of prices and dividends.
// Implementations must be safe for concurrent use.
type MarketDataGateway interface {
	// CurrentPrice returns the latest price of ticker.
	CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
	// HistoricalPrices returns daily closes of ticker over period.
	HistoricalPrices(ctx context.Context, ticker, period string) (model.Series, error)
	// Dividends returns per-share dividend payments of ticker over period. May be empty.
	Dividends(ctx context.Context, ticker, period string) (model.Series, error)
}

// NotificationSink delivers a message to a user.
type NotificationSink interface {
	Notify(ctx context.Context, userID, message string) error
}
