package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-analytics/internal/api/middleware"
)

// TestLogger tests that every request is logged with its outcome.
//
// WHY: Request logs are the only trace of failed backtests and snapshots in
// production; the level must reflect the response status.
func TestLogger(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  logrus.Level
	}{
		{"success logs at info", http.StatusOK, logrus.InfoLevel},
		{"client error logs at warn", http.StatusBadRequest, logrus.WarnLevel},
		{"server error logs at error", http.StatusInternalServerError, logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/backtest", nil)
			w := httptest.NewRecorder()
			middleware.Logger(logger)(next).ServeHTTP(w, req)

			require.Len(t, hook.AllEntries(), 1)
			entry := hook.LastEntry()
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, "POST", entry.Data["method"])
			assert.Equal(t, "/api/backtest", entry.Data["path"])
			assert.Equal(t, tt.status, entry.Data["status"])
		})
	}
}
