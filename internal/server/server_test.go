package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/metrics"
)

type fakeRuns struct {
	at  time.Time
	err error
}

func (f fakeRuns) LastRun() (time.Time, error) { return f.at, f.err }

func newTestServer(runs RunTracker) *Server {
	logger := zerolog.Nop()
	s := New(DefaultConfig(), &logger, metrics.New().Handler(), runs, "v1.2.3")
	return s
}

func get(t *testing.T, h http.Handler, path string) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var resp Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestHealth(t *testing.T) {
	code, resp := get(t, newTestServer(nil).Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "v1.2.3", data["version"])
}

func TestReady(t *testing.T) {
	now := time.Date(2021, 4, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		runs RunTracker
		code int
		err  string
	}{
		{"no tracker", nil, http.StatusOK, ""},
		{"recent success", fakeRuns{at: now.Add(-time.Minute)}, http.StatusOK, ""},
		{"last run failed", fakeRuns{at: now, err: errors.ErrTimeout}, http.StatusServiceUnavailable, "SYNC_FAILED"},
		{"stale", fakeRuns{at: now.Add(-24 * time.Hour)}, http.StatusServiceUnavailable, "SYNC_STALE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(tt.runs)
			s.startTime = now.Add(-48 * time.Hour)
			s.now = func() time.Time { return now }

			code, resp := get(t, s.Handler(), "/readyz")
			assert.Equal(t, tt.code, code)
			if tt.err != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.err, resp.Error.Code)
			} else {
				assert.Nil(t, resp.Error)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRecovery(t *testing.T) {
	logger := zerolog.Nop()
	h := Recovery(&logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	code, resp := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
