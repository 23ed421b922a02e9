package apperrors

import (
	"errors"
	"fmt"
)

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrSymbolNotFound indicates that a symbol lookup returned no results
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Business logic errors represent validation failures or missing market data.
var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrDataUnavailable matches every *DataUnavailableError via errors.Is.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrInsufficientData indicates that fewer than two trading days were available,
	// so returns and volatility cannot be computed.
	ErrInsufficientData = errors.New("insufficient data points for performance calculation")

	ErrInvalidUUID = errors.New("invalid UUID format")
)

// Cache errors. These never leave the cache layer.
var (
	// ErrCacheMiss is returned by cache stores when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
)

// ValidationError reports a request that was rejected before any I/O took place.
// Its message is safe to surface verbatim to callers.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DataUnavailableError reports that a required price or dividend series could not be
// retrieved for a specific ticker. It aborts the whole valuation or backtest.
type DataUnavailableError struct {
	Ticker   string
	DataType string
	Err      error
}

func (e *DataUnavailableError) Error() string {
	if e.DataType == "" {
		return fmt.Sprintf("failed to retrieve data for %s: %v", e.Ticker, e.Err)
	}
	return fmt.Sprintf("failed to retrieve %s for %s: %v", e.DataType, e.Ticker, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrDataUnavailable) match any DataUnavailableError.
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}
