package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is an immutable, timestamped record of a portfolio's computed value.
// Snapshots are append-only: nothing in the application updates or deletes them.
type PortfolioSnapshot struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolioId"`
	Value       decimal.Decimal `json:"value"`
	Timestamp   time.Time       `json:"timestamp"` // UTC
}

// SnapshotRunResult summarises a bulk snapshot run over all portfolios.
type SnapshotRunResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// AUMPoint is the total assets under management on a single UTC calendar day.
type AUMPoint struct {
	Date  string  `json:"date"` // Date in YYYY-MM-DD format
	Value float64 `json:"value"`
}

// DashboardSummary holds the headline AUM figures for a dashboard.
// MonthlyGrowthPercentage is a fraction (0.0523 for 5.23%) and nil when
// there is not enough snapshot history to compute it.
type DashboardSummary struct {
	PortfolioCount          int      `json:"portfolioCount"`
	ClientCount             int      `json:"clientCount"`
	AssetsUnderManagement   float64  `json:"assetsUnderManagement"`
	MonthlyGrowthPercentage *float64 `json:"monthlyGrowthPercentage"`
}

// Notification is a message addressed to a user, written after snapshots.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
