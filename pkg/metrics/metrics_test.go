package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/reconciler"
)

func TestObserveReconcile(t *testing.T) {
	o := New()
	r := reconciler.NewResult("Papers")
	r.Stats = reconciler.Stats{Created: 2, Updated: 1, Failed: 1}
	r.Failed = []reconciler.Failure{{LocalID: 3, Operation: "create"}}
	r.Metadata.Duration = 250 * time.Millisecond
	o.ObserveReconcile(r)

	assert.Equal(t, 2.0, testutil.ToFloat64(o.records.WithLabelValues("Papers", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.records.WithLabelValues("Papers", "updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.failures.WithLabelValues("Papers", "create")))

	dry := reconciler.NewResult("Papers")
	dry.Stats.Created = 5
	dry.Metadata.DryRun = true
	o.ObserveReconcile(dry)
	assert.Equal(t, 2.0, testutil.ToFloat64(o.records.WithLabelValues("Papers", "created")))
}

func TestObserveRun(t *testing.T) {
	o := New()
	at := time.Unix(1617375845, 0)
	o.ObserveRun(nil, at)
	o.ObserveRun(errors.ErrTimeout, at.Add(time.Hour))

	assert.Equal(t, 1.0, testutil.ToFloat64(o.runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.runs.WithLabelValues("error")))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(o.lastRun))

	last, err := o.LastRun()
	assert.Equal(t, at.Add(time.Hour), last)
	assert.ErrorIs(t, err, errors.ErrTimeout)
}

func TestHandler(t *testing.T) {
	o := New()
	o.ObserveRun(nil, time.Now())

	rec := httptest.NewRecorder()
	o.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `airsync_sync_runs_total{result="ok"} 1`)
}
