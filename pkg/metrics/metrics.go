// Package metrics exports sync outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/airsync/pkg/reconciler"
)

const namespace = "airsync"

// Observer records reconcile and sync results. It implements
// reconciler.Observer.
type Observer struct {
	registry *prometheus.Registry
	records  *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	lastRun  prometheus.Gauge

	mu      sync.Mutex
	last    time.Time
	lastErr error
}

var _ reconciler.Observer = (*Observer)(nil)

// New creates an Observer with its own registry, including the Go and
// process collectors.
func New() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Rows reconciled, by remote table and outcome.",
		}, []string{"table", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_failures_total",
			Help:      "Rejected remote writes, by table and operation.",
		}, []string{"table", "operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of one table reconciliation.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"table"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs, by result.",
		}, []string{"result"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_sync_timestamp_seconds",
			Help:      "Unix time of the last sync run that finished without error.",
		}),
	}
	o.registry.MustRegister(
		o.records, o.failures, o.duration, o.runs, o.lastRun,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return o
}

// ObserveReconcile implements reconciler.Observer. Dry runs are not
// counted.
func (o *Observer) ObserveReconcile(r *reconciler.Result) {
	if r == nil || r.Metadata.DryRun {
		return
	}
	for outcome, n := range map[string]int{
		"created":   r.Stats.Created,
		"updated":   r.Stats.Updated,
		"unchanged": r.Stats.Unchanged,
		"skipped":   r.Stats.Skipped,
		"failed":    r.Stats.Failed,
		"orphaned":  r.Stats.Orphans,
	} {
		if n > 0 {
			o.records.WithLabelValues(r.Table, outcome).Add(float64(n))
		}
	}
	for _, f := range r.Failed {
		o.failures.WithLabelValues(r.Table, f.Operation).Inc()
	}
	o.duration.WithLabelValues(r.Table).Observe(r.Metadata.Duration.Seconds())
}

// ObserveRun records the end of a whole sync run.
func (o *Observer) ObserveRun(err error, at time.Time) {
	o.mu.Lock()
	o.last, o.lastErr = at, err
	o.mu.Unlock()

	if err != nil {
		o.runs.WithLabelValues("error").Inc()
		return
	}
	o.runs.WithLabelValues("ok").Inc()
	o.lastRun.Set(float64(at.Unix()))
}

// LastRun returns when the last sync run finished and its error. The
// time is zero before the first run.
func (o *Observer) LastRun() (time.Time, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last, o.lastErr
}

// Registry returns the registry metrics are collected in.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{Registry: o.registry})
}
