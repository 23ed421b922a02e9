package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-analytics/internal/api/middleware"
	"github.com/ndewijer/portfolio-analytics/internal/api/response"
)

// TestValidateUUIDMiddleware tests rejection of malformed portfolio IDs.
//
// WHY: Portfolio routes take the ID from the path. A malformed ID must be
// rejected with 400 before any service or database call happens.
func TestValidateUUIDMiddleware(t *testing.T) {
	serve := func(t *testing.T, id string) (*httptest.ResponseRecorder, bool) {
		t.Helper()
		handlerCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			handlerCalled = true
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("uuid", id)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		w := httptest.NewRecorder()
		middleware.ValidateUUIDMiddleware(next).ServeHTTP(w, req)
		return w, handlerCalled
	}

	t.Run("passes through valid UUID", func(t *testing.T) {
		w, called := serve(t, "550e8400-e29b-41d4-a716-446655440000")

		assert.True(t, called, "expected next handler to be called")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("returns 400 for invalid UUID", func(t *testing.T) {
		w, called := serve(t, "invalid-id")

		assert.False(t, called, "expected next handler NOT to be called")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body response.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "invalid UUID format", body.Error)
		assert.Contains(t, body.Details, "invalid-id")
	})

	t.Run("returns 400 for empty UUID", func(t *testing.T) {
		w, called := serve(t, "")

		assert.False(t, called, "expected next handler NOT to be called")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
