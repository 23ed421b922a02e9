package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is the owner indirection for portfolios. OwnerID is the advisor that
// manages the client and receives portfolio notifications.
type Client struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

// Portfolio represents a portfolio from the database
type Portfolio struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClientID string `json:"clientId"`
	OwnerID  string `json:"ownerId"` // resolved through client.owner_id
}

// PortfolioFilter for querying portfolios.
// A nil OwnerIDs slice means no owner restriction; an empty non-nil slice matches nothing.
type PortfolioFilter struct {
	OwnerIDs []string
}

// Position is a holding of a single ticker inside a portfolio.
type Position struct {
	ID            string          `json:"id"`
	PortfolioID   string          `json:"portfolioId"`
	Ticker        string          `json:"ticker"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
}

// Valuation is the current market value of a portfolio computed from live prices.
// All monetary values are rounded to two decimal places. TotalPnLPercentage is a
// percentage (50.0 means +50%).
type Valuation struct {
	PortfolioID        string          `json:"portfolioId"`
	PortfolioName      string          `json:"portfolioName"`
	TotalValue         decimal.Decimal `json:"totalValue"`
	TotalCostBasis     decimal.Decimal `json:"totalCostBasis"`
	TotalPnL           decimal.Decimal `json:"totalPnl"`
	TotalPnLPercentage decimal.Decimal `json:"totalPnlPercentage"`
	PositionsCount     int             `json:"positionsCount"`
	LastUpdated        time.Time       `json:"lastUpdated"`
}
