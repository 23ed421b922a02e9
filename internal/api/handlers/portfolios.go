package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/portfolio-analytics/internal/api/response"
	"github.com/ndewijer/portfolio-analytics/internal/service"
)

// PortfolioHandler handles portfolio valuation and snapshot HTTP requests.
type PortfolioHandler struct {
	valuationService *service.ValuationService
	snapshotService  *service.SnapshotService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(valuationService *service.ValuationService, snapshotService *service.SnapshotService) *PortfolioHandler {
	return &PortfolioHandler{
		valuationService: valuationService,
		snapshotService:  snapshotService,
	}
}

// Valuation handles GET requests for the current market valuation of a portfolio.
//
// Endpoint: GET /api/portfolio/{uuid}/valuation
// Response: 200 OK with model.Valuation
// Error: 400 Bad Request if portfolio ID is invalid (validated by middleware)
// Error: 404 Not Found if portfolio not found
// Error: 422 Unprocessable Entity if a price is unavailable
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	valuation, err := h.valuationService.Valuate(r.Context(), portfolioID)
	if err != nil {
		response.RespondServiceError(w, "failed to valuate portfolio", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, valuation)
}

// Snapshot handles POST requests that record a snapshot of a portfolio's current value.
//
// Endpoint: POST /api/portfolio/{uuid}/snapshot
// Response: 201 Created with model.PortfolioSnapshot
// Error: 404 Not Found if portfolio not found
// Error: 422 Unprocessable Entity if a price is unavailable; no snapshot is written
func (h *PortfolioHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	snapshot, err := h.snapshotService.Snapshot(r.Context(), portfolioID)
	if err != nil {
		response.RespondServiceError(w, "failed to create snapshot", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, snapshot)
}

// SnapshotAll handles POST requests that snapshot every portfolio.
// Individual failures are reported in the result, not as an error status.
//
// Endpoint: POST /api/portfolio/snapshots
// Response: 200 OK with model.SnapshotRunResult
func (h *PortfolioHandler) SnapshotAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.snapshotService.SnapshotAll(r.Context())
	if err != nil {
		response.RespondServiceError(w, "failed to run snapshots", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
