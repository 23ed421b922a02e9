package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// NewRequestWithURLParams builds a request as if chi had routed it, so that
// chi.URLParam works inside the handler under test:
//
//	req := testutil.NewRequestWithURLParams(http.MethodGet,
//	    "/api/portfolio/"+id+"/valuation", map[string]string{"uuid": id})
func NewRequestWithURLParams(method, path string, params map[string]string) *http.Request {
	return withRouteParams(httptest.NewRequest(method, path, nil), params)
}

// NewRequestWithQueryParams builds a request with params merged into its query string.
func NewRequestWithQueryParams(method, path string, params map[string]string) *http.Request {
	return withQuery(httptest.NewRequest(method, path, nil), params)
}

// NewJSONRequest builds a request carrying body as a JSON document.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to encode request body: %v", err)
	}
	return newBodyRequest(method, path, bytes.NewReader(payload))
}

func newBodyRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withRouteParams(req *http.Request, params map[string]string) *http.Request {
	if len(params) == 0 {
		return req
	}
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func withQuery(req *http.Request, params map[string]string) *http.Request {
	if len(params) == 0 {
		return req
	}
	q := req.URL.Query()
	for key, value := range params {
		q.Add(key, value)
	}
	req.URL.RawQuery = q.Encode()
	return req
}
