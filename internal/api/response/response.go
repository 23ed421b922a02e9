// Package response provides utilities for sending consistent HTTP responses.
// It includes helpers for JSON responses and standardized error responses.
package response

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
)

// ErrorResponse represents a structured error response returned by the API.
// The Details field is optional and can contain additional context about the error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// If data is nil, only the status code is sent.
// Logs encoding errors but does not fail the response.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logrus.WithError(err).Error("failed to encode JSON response")
		}
	}
}

// RespondError sends a structured error response with the given status code.
//
// Example:
//
//	response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// StatusForError maps an application error to its HTTP status code.
//
//   - validation errors and malformed IDs: 400
//   - unknown portfolio: 404
//   - unavailable market data or too little history: 422
//   - anything else: 500
func StatusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidUUID):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrPortfolioNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDataUnavailable), errors.Is(err, apperrors.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError writes err with the status from StatusForError.
// Validation messages are surfaced verbatim; server errors use the given message.
func RespondServiceError(w http.ResponseWriter, message string, err error) {
	status := StatusForError(err)

	var validationErr *apperrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		RespondError(w, status, "validation failed", validationErr.Error())
	case status == http.StatusNotFound:
		RespondError(w, status, apperrors.ErrPortfolioNotFound.Error(), err.Error())
	default:
		RespondError(w, status, message, err.Error())
	}
}
