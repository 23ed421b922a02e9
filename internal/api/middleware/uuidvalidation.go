// Package middleware holds the chi middleware shared by all portfolio routes.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/portfolio-analytics/internal/api/response"
	"github.com/ndewijer/portfolio-analytics/internal/validation"
)

// ValidateUUIDMiddleware rejects requests whose {uuid} route parameter is
// missing or not a UUID with 400, so valuation and snapshot handlers never
// reach the database with a malformed portfolio id.
//
//	r.Route("/{uuid}", func(r chi.Router) {
//	    r.Use(middleware.ValidateUUIDMiddleware)
//	    r.Get("/valuation", handler.Valuation)
//	})
func ValidateUUIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		portfolioID := chi.URLParam(r, "uuid")
		if portfolioID == "" {
			response.RespondError(w, http.StatusBadRequest, "valid UUID is required", "")
			return
		}
		if err := validation.ValidateUUID(portfolioID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid UUID format", err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
