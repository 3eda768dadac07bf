package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(opts ...Option) *Client {
	opts = append([]Option{WithBackoff(time.Millisecond, 5*time.Millisecond)}, opts...)
	c := New("test", &BearerAuth{}, "token", opts...)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestDoJSONSendsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "airsync", r.Header.Get("User-Agent"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["name"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := newTestClient().DoJSON(context.Background(), http.MethodPost, srv.URL, map[string]string{"name": "x"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "x", out["echo"])
}

func TestDoJSONRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct{ OK bool }
	err := newTestClient().Get(context.Background(), srv.URL, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoJSONGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newTestClient(WithRetries(2)).Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.IsServiceUnavailable(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoJSONDoesNotRetryPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"type":"INVALID_VALUE_FOR_COLUMN"}}`))
	}))
	defer srv.Close()

	err := newTestClient().DoJSON(context.Background(), http.MethodPatch, srv.URL, map[string]int{"a": 1}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsPermanent(err))
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "INVALID_VALUE_FOR_COLUMN")
}

func TestPerRequestTimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	err := newTestClient(WithTimeout(5*time.Millisecond), WithRetries(0)).Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
}

func TestRetryAfterHeader(t *testing.T) {
	c := newTestClient()
	err := &retryAfterError{APIError: errors.NewAPIError("test", 429, ""), after: 2 * time.Millisecond}
	assert.Equal(t, 2*time.Millisecond, c.delay(1, err))
	assert.Equal(t, time.Millisecond, c.delay(1, errors.New("x")))
	assert.Equal(t, 4*time.Millisecond, c.delay(3, errors.New("x")))
	assert.Equal(t, 5*time.Millisecond, c.delay(10, errors.New("x")))
	assert.True(t, errors.IsRateLimited(err))

	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))
}

func TestCanceledContextStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newTestClient().Get(ctx, srv.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
