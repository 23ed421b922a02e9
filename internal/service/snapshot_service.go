package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/portfolio-analytics/internal/model"
	"github.com/ndewijer/portfolio-analytics/internal/repository"
)

// DefaultNotifyTimeout bounds a single owner notification.
const DefaultNotifyTimeout = 10 * time.Second

// SnapshotService records immutable portfolio valuations and notifies the portfolio owner.
//
// Notifications are fire-and-forget: they run on a background goroutine after the
// snapshot has been committed, and a failed notification is logged but never turns a
// successful snapshot into a failure. Call Wait to drain pending notifications.
type SnapshotService struct {
	portfolioRepo    *repository.PortfolioRepository
	snapshotRepo     *repository.SnapshotRepository
	valuationService *ValuationService
	notifier         NotificationSink
	notifyTimeout    time.Duration
	logger           logrus.FieldLogger
	now              func() time.Time
	wg               sync.WaitGroup
}

// NewSnapshotService creates a new SnapshotService. notifier may be nil to disable notifications.
func NewSnapshotService(
	portfolioRepo *repository.PortfolioRepository,
	snapshotRepo *repository.SnapshotRepository,
	valuationService *ValuationService,
	notifier NotificationSink,
	logger logrus.FieldLogger,
) *SnapshotService {
	return &SnapshotService{
		portfolioRepo:    portfolioRepo,
		snapshotRepo:     snapshotRepo,
		valuationService: valuationService,
		notifier:         notifier,
		notifyTimeout:    DefaultNotifyTimeout,
		logger:           logger,
		now:              time.Now,
	}
}

// Snapshot values a portfolio and appends the result to its snapshot history.
// If valuation fails nothing is written and the error is returned unchanged.
func (s *SnapshotService) Snapshot(ctx context.Context, portfolioID string) (model.PortfolioSnapshot, error) {
	portfolio, err := s.portfolioRepo.GetPortfolioOnID(ctx, portfolioID)
	if err != nil {
		return model.PortfolioSnapshot{}, err
	}
	return s.snapshotPortfolio(ctx, portfolio)
}

func (s *SnapshotService) snapshotPortfolio(ctx context.Context, portfolio model.Portfolio) (model.PortfolioSnapshot, error) {
	valuation, err := s.valuationService.valuatePortfolio(ctx, portfolio)
	if err != nil {
		return model.PortfolioSnapshot{}, err
	}

	snapshot := model.PortfolioSnapshot{
		ID:          uuid.New().String(),
		PortfolioID: portfolio.ID,
		Value:       valuation.TotalValue,
		Timestamp:   s.now().UTC(),
	}
	if err := s.snapshotRepo.InsertSnapshot(ctx, snapshot); err != nil {
		return model.PortfolioSnapshot{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"portfolio_id": portfolio.ID,
		"value":        snapshot.Value.String(),
	}).Info("portfolio snapshot recorded")

	s.notifyOwner(ctx, portfolio, snapshot.Value)

	return snapshot, nil
}

// SnapshotAll snapshots every portfolio. A failing portfolio is logged and counted;
// the run continues with the next one. Only failing to list portfolios is an error.
func (s *SnapshotService) SnapshotAll(ctx context.Context) (model.SnapshotRunResult, error) {
	portfolios, err := s.portfolioRepo.GetPortfolios(ctx, model.PortfolioFilter{})
	if err != nil {
		return model.SnapshotRunResult{}, fmt.Errorf("failed to list portfolios: %w", err)
	}

	result := model.SnapshotRunResult{Errors: []string{}}
	for _, p := range portfolios {
		if _, err := s.snapshotPortfolio(ctx, p); err != nil {
			s.logger.WithError(err).WithField("portfolio_id", p.ID).Error("portfolio snapshot failed")
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.ID, err))
			continue
		}
		result.Created++
	}

	s.logger.WithFields(logrus.Fields{
		"created": result.Created,
		"failed":  result.Failed,
	}).Info("snapshot run finished")

	return result, nil
}

// Wait blocks until all in-flight notifications have finished.
func (s *SnapshotService) Wait() {
	s.wg.Wait()
}

func (s *SnapshotService) notifyOwner(ctx context.Context, portfolio model.Portfolio, value decimal.Decimal) {
	if s.notifier == nil || portfolio.OwnerID == "" {
		return
	}

	message := fmt.Sprintf("Portfolio '%s' valuation updated. New value: %s", portfolio.Name, formatUSD(value))

	// Detached from the request so a finished request does not cancel delivery.
	notifyCtx, cancel := withTimeout(context.WithoutCancel(ctx), s.notifyTimeout)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		if err := s.notifier.Notify(notifyCtx, portfolio.OwnerID, message); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"portfolio_id": portfolio.ID,
				"owner_id":     portfolio.OwnerID,
			}).Warn("notification failure")
		}
	}()
}

// formatUSD renders an amount as US dollars, e.g. $1,500.00.
func formatUSD(value decimal.Decimal) string {
	cents := value.Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}
