package validation

import (
	"math"
	"strings"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/model"
)

// WeightTolerance is the maximum allowed distance between the sum of weights and 1.0.
const WeightTolerance = 0.001

// MaxAUMDays is the longest AUM history window that can be requested.
const MaxAUMDays = 365

var validPeriods = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

// ValidateBacktestRequest checks a backtest request before any market data is fetched.
// It returns the first violation as an *apperrors.ValidationError.
func ValidateBacktestRequest(req model.BacktestRequest) error {
	if !validPeriods[req.Period] {
		return apperrors.NewValidationError("period", "invalid period %q (expected one of 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max)", req.Period)
	}

	if len(req.Composition) == 0 {
		return apperrors.NewValidationError("composition", "at least one ticker is required")
	}

	sum := 0.0
	for _, entry := range req.Composition {
		if strings.TrimSpace(entry.Ticker) == "" {
			return apperrors.NewValidationError("composition", "ticker cannot be empty")
		}
		if math.IsNaN(entry.Weight) || entry.Weight < 0 || entry.Weight > 1 {
			return apperrors.NewValidationError("composition", "weight for %s must be between 0 and 1", entry.Ticker)
		}
		sum += entry.Weight
	}
	if math.Abs(sum-1.0) > WeightTolerance {
		return apperrors.NewValidationError("composition", "portfolio weights must sum to 1.0, got %.4f", sum)
	}

	if len(req.Benchmarks) == 0 {
		return apperrors.NewValidationError("benchmarks", "at least one benchmark is required")
	}
	for _, b := range req.Benchmarks {
		if strings.TrimSpace(b) == "" {
			return apperrors.NewValidationError("benchmarks", "benchmark ticker cannot be empty")
		}
	}

	return nil
}

// ValidateDays checks the size of an AUM history window.
func ValidateDays(days int) error {
	if days < 1 || days > MaxAUMDays {
		return apperrors.NewValidationError("days", "days must be between 1 and %d, got %d", MaxAUMDays, days)
	}
	return nil
}
