package handlers

import (
	"net/http"

	"github.com/ndewijer/portfolio-analytics/internal/api/request"
	"github.com/ndewijer/portfolio-analytics/internal/api/response"
	"github.com/ndewijer/portfolio-analytics/internal/service"
)

// DashboardHandler serves aggregated AUM figures.
type DashboardHandler struct {
	aumService *service.AUMService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(aumService *service.AUMService) *DashboardHandler {
	return &DashboardHandler{
		aumService: aumService,
	}
}

// AUMHistory handles GET requests for the daily AUM series.
//
// Endpoint: GET /api/dashboard/aum-history?days=30&owner_id={id}
// Response: 200 OK with array of model.AUMPoint (empty when there are no snapshots)
// Error: 400 Bad Request if days is not an integer in 1..365
func (h *DashboardHandler) AUMHistory(w http.ResponseWriter, r *http.Request) {
	days, err := request.ParseDays(r.URL.Query())
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid days parameter", err.Error())
		return
	}

	points, err := h.aumService.History(r.Context(), days, request.ParseOwnerIDs(r.URL.Query()))
	if err != nil {
		response.RespondServiceError(w, "failed to retrieve AUM history", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, points)
}

// Summary handles GET requests for the dashboard headline figures.
//
// Endpoint: GET /api/dashboard/summary?owner_id={id}
// Response: 200 OK with model.DashboardSummary
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.aumService.Summary(r.Context(), request.ParseOwnerIDs(r.URL.Query()))
	if err != nil {
		response.RespondServiceError(w, "failed to retrieve dashboard summary", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
