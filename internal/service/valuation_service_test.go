package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/testutil"
)

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	require.Truef(t, want.Equal(actual), "expected %s, got %s", want, actual)
}

// TestValuationService_Valuate tests valuation of portfolios at current prices.
//
// WHY: Valuation feeds every snapshot and therefore every AUM figure. Totals
// must be exact to the cent and a single missing price must never produce a
// partial value.
func TestValuationService_Valuate(t *testing.T) {
	ctx := context.Background()

	t.Run("values a single position", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		logger, _ := testutil.NewTestLogger()
		md := testutil.NewMockMarketData().WithCurrentPrice("AAPL", 150)
		svc := testutil.NewTestValuationService(t, db, md, logger)

		p := testutil.NewPortfolio().WithName("Growth").WithPosition("AAPL", 10, 100).Build(t, db)

		v, err := svc.Valuate(ctx, p.ID)
		require.NoError(t, err)

		assert.Equal(t, p.ID, v.PortfolioID)
		assert.Equal(t, "Growth", v.PortfolioName)
		requireDecimal(t, "1500", v.TotalValue)
		requireDecimal(t, "1000", v.TotalCostBasis)
		requireDecimal(t, "500", v.TotalPnL)
		requireDecimal(t, "50", v.TotalPnLPercentage)
		assert.Equal(t, 1, v.PositionsCount)
		assert.False(t, v.LastUpdated.IsZero())
	})

	t.Run("sums multiple positions and rounds to cents", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		logger, _ := testutil.NewTestLogger()
		md := testutil.NewMockMarketData().
			WithCurrentPrice("AAPL", 150.555).
			WithCurrentPrice("MSFT", 300)
		svc := testutil.NewTestValuationService(t, db, md, logger)

		p := testutil.NewPortfolio().
			WithPosition("AAPL", 2, 100).
			WithPosition("MSFT", 1, 350).
			Build(t, db)

		v, err := svc.Valuate(ctx, p.ID)
		require.NoError(t, err)

		// 2 × 150.555 + 300 = 601.11; cost 550
		requireDecimal(t, "601.11", v.TotalValue)
		requireDecimal(t, "550", v.TotalCostBasis)
		requireDecimal(t, "51.11", v.TotalPnL)
		requireDecimal(t, "9.29", v.TotalPnLPercentage)
		assert.Equal(t, 2, v.PositionsCount)
	})

	t.Run("same ticker held twice is fetched once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		logger, _ := testutil.NewTestLogger()
		md := testutil.NewMockMarketData().WithCurrentPrice("AAPL", 10)
		svc := testutil.NewTestValuationService(t, db, md, logger)

		p := testutil.NewPortfolio().
			WithPosition("AAPL", 1, 5).
			WithPosition("AAPL", 2, 8).
			Build(t, db)

		v, err := svc.Valuate(ctx, p.ID)
		require.NoError(t, err)

		requireDecimal(t, "30", v.TotalValue)
		assert.Equal(t, 1, md.Calls("AAPL", "current"))
	})

	t.Run("empty portfolio values at zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		logger, _ := testutil.NewTestLogger()
		md := testutil.NewMockMarketData()
		svc := testutil.NewTestValuationService(t, db, md, logger)

		p := testutil.CreatePortfolio(t, db, "Empty")

		v, err := svc.Valuate(ctx, p.ID)
		require.NoError(t, err)

		assert.True(t, v.TotalValue.IsZero())
		assert.True(t, v.TotalPnL.IsZero())
		assert.True(t, v.TotalPnLPercentage.IsZero())
		assert.Equal(t, 0, v.PositionsCount)
		assert.Equal(t, 0, md.TotalCalls())
	})

	t.Run("zero cost basis gives zero percentage", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		logger, _ := testutil.NewTestLogger()
		md := testutil.NewMockMarketData().WithCurrentPrice("GIFT", 20)
		svc := testutil.NewTestValuationService(t, db, md, logger)

		p := testutil.NewPortfolio().WithPosition("GIFT", 5, 0).Build(t, db)

		v, err := svc.Valuate(ctx, p.ID)
		require.NoError(t, err)

		requireDecimal(t, "100", v.TotalValue)
		requireDecimal(t, "100", v.TotalPnL)
		assert.True(t, v.TotalPnLPercentage.IsZero())
	})

	t.Run("unknown portfolio returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		logger, _ := testutil.NewTestLogger()
		svc := testutil.NewTestValuationService(t, db, testutil.NewMockMarketData(), logger)

		_, err := svc.Valuate(ctx, testutil.MakeID())
		assert.ErrorIs(t, err, apperrors.ErrPortfolioNotFound)
	})

	t.Run("one missing price fails the whole valuation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		logger, _ := testutil.NewTestLogger()
		md := testutil.NewMockMarketData().
			WithCurrentPrice("AAPL", 150).
			WithError("DEAD", errors.New("delisted"))
		svc := testutil.NewTestValuationService(t, db, md, logger)

		p := testutil.NewPortfolio().
			WithPosition("AAPL", 1, 100).
			WithPosition("DEAD", 1, 100).
			Build(t, db)

		_, err := svc.Valuate(ctx, p.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrDataUnavailable)

		var dataErr *apperrors.DataUnavailableError
		require.ErrorAs(t, err, &dataErr)
		assert.Equal(t, "DEAD", dataErr.Ticker)
	})
}
