package handlers

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ndewijer/portfolio-analytics/internal/api/request"
	"github.com/ndewijer/portfolio-analytics/internal/api/response"
	"github.com/ndewijer/portfolio-analytics/internal/service"
)

// BacktestHandler runs portfolio backtests.
type BacktestHandler struct {
	backtestService *service.BacktestService
}

// NewBacktestHandler creates a new BacktestHandler
func NewBacktestHandler(backtestService *service.BacktestService) *BacktestHandler {
	return &BacktestHandler{
		backtestService: backtestService,
	}
}

// Run handles POST requests that simulate a weighted composition against benchmarks.
//
// Endpoint: POST /api/backtest
// Request: request.BacktestRequest
// Response: 200 OK with model.BacktestResponse
// Error: 400 Bad Request for malformed JSON or an invalid request
// Error: 422 Unprocessable Entity if market data is unavailable or too short
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req request.BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.backtestService.Run(r.Context(), req.ToModel())
	if err != nil {
		response.RespondServiceError(w, "failed to run backtest", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
