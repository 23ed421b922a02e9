package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/portfolio-analytics/internal/model"
	"github.com/ndewijer/portfolio-analytics/internal/repository"
	"github.com/ndewijer/portfolio-analytics/internal/validation"
)

// AUMService aggregates stored snapshots into assets-under-management figures.
// It only reads snapshots; it never values portfolios itself.
type AUMService struct {
	portfolioRepo *repository.PortfolioRepository
	snapshotRepo  *repository.SnapshotRepository
	logger        logrus.FieldLogger
	now           func() time.Time
}

// NewAUMService creates a new AUMService.
func NewAUMService(
	portfolioRepo *repository.PortfolioRepository,
	snapshotRepo *repository.SnapshotRepository,
	logger logrus.FieldLogger,
) *AUMService {
	return &AUMService{
		portfolioRepo: portfolioRepo,
		snapshotRepo:  snapshotRepo,
		logger:        logger,
		now:           time.Now,
	}
}

// History returns the daily AUM over the last days calendar days, including today.
//
// Snapshots taken in the window [midnight UTC (days−1) days ago, now] are grouped by
// their UTC calendar date and summed across portfolios. Days without snapshots are
// omitted rather than reported as zero. Points are ordered by date ascending.
//
// owners restricts the portfolios to those whose client is owned by one of the given
// IDs. nil means all portfolios; an empty slice matches none.
//
// Returns an *apperrors.ValidationError when days is outside 1..365.
func (s *AUMService) History(ctx context.Context, days int, owners []string) ([]model.AUMPoint, error) {
	if err := validation.ValidateDays(days); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	start := startOfDay(now).AddDate(0, 0, -(days - 1))

	snapshots, err := s.snapshotRepo.GetSnapshotsInRange(ctx, model.PortfolioFilter{OwnerIDs: owners}, start, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, snap := range snapshots {
		day := dateKey(snap.Timestamp)
		totals[day] = totals[day].Add(snap.Value)
	}

	dates := make([]string, 0, len(totals))
	for day := range totals {
		dates = append(dates, day)
	}
	sort.Strings(dates)

	points := make([]model.AUMPoint, 0, len(dates))
	for _, day := range dates {
		points = append(points, model.AUMPoint{
			Date:  day,
			Value: totals[day].Round(2).InexactFloat64(),
		})
	}

	s.logger.WithFields(logrus.Fields{
		"days":      days,
		"snapshots": len(snapshots),
		"points":    len(points),
	}).Debug("aum history aggregated")

	return points, nil
}

// Summary returns headline dashboard figures for the selected owners.
//
// AssetsUnderManagement is the sum of the latest snapshot of every portfolio.
// MonthlyGrowthPercentage compares it with the same sum as of the first instant of
// the current UTC month, as a fraction rounded to four decimals. It is nil when there
// is no history on either side or either AUM is zero.
// ClientCount is the number of distinct clients behind the selected portfolios.
func (s *AUMService) Summary(ctx context.Context, owners []string) (model.DashboardSummary, error) {
	filter := model.PortfolioFilter{OwnerIDs: owners}
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	portfolios, err := s.portfolioRepo.GetPortfolios(ctx, filter)
	if err != nil {
		return model.DashboardSummary{}, fmt.Errorf("failed to load portfolios: %w", err)
	}

	current, err := s.snapshotRepo.GetLatestSnapshots(ctx, filter, now)
	if err != nil {
		return model.DashboardSummary{}, fmt.Errorf("failed to load latest snapshots: %w", err)
	}
	previous, err := s.snapshotRepo.GetLatestSnapshots(ctx, filter, monthStart)
	if err != nil {
		return model.DashboardSummary{}, fmt.Errorf("failed to load start of month snapshots: %w", err)
	}

	currentAUM := sumSnapshots(current)
	previousAUM := sumSnapshots(previous)

	clients := make(map[string]struct{}, len(portfolios))
	for _, p := range portfolios {
		clients[p.ClientID] = struct{}{}
	}

	summary := model.DashboardSummary{
		PortfolioCount:        len(portfolios),
		ClientCount:           len(clients),
		AssetsUnderManagement: currentAUM.Round(2).InexactFloat64(),
	}

	if len(current) > 0 && len(previous) > 0 && !previousAUM.IsZero() && !currentAUM.IsZero() {
		growth := roundTo(currentAUM.Div(previousAUM).Sub(decimal.NewFromInt(1)).InexactFloat64(), 4)
		summary.MonthlyGrowthPercentage = &growth
	}

	return summary, nil
}

func sumSnapshots(snapshots []model.PortfolioSnapshot) decimal.Decimal {
	total := decimal.Zero
	for _, s := range snapshots {
		total = total.Add(s.Value)
	}
	return total
}
