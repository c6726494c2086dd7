// Package metrics defines the Prometheus collectors for a pipeline run and
// pushes them to a Pushgateway when the run is over.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Resolution outcomes
const (
	OutcomeResolved    = "resolved"
	OutcomeNotFound    = "not_found"
	OutcomeOutOfBounds = "out_of_bounds"
	OutcomeNoQuery     = "no_query"
	OutcomeError       = "error"
)

// Metrics holds all Prometheus collectors for a run.
type Metrics struct {
	Registry *prometheus.Registry

	ResolutionsTotal  *prometheus.CounterVec
	UpstreamRequests  *prometheus.CounterVec
	UpstreamLatency   prometheus.Histogram
	CacheHitsTotal    prometheus.Counter
	CacheMissesTotal  prometheus.Counter
	BatchDuration     prometheus.Histogram
	MerchantsTotal    prometheus.Gauge
	GroupsTotal       prometheus.Gauge
	RunDuration       prometheus.Gauge
	LastSuccessUnixMs prometheus.Gauge
}

// New creates all collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bono_resolutions_total",
				Help: "Coordinate resolutions by outcome (resolved, not_found, out_of_bounds, no_query, error).",
			},
			[]string{"outcome"},
		),
		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bono_upstream_requests_total",
				Help: "Requests sent to the map-search endpoint by status class.",
			},
			[]string{"status"},
		),
		UpstreamLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bono_upstream_latency_seconds",
				Help:    "Map-search request latency in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 7},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bono_lookup_cache_hits_total",
				Help: "Resolutions answered from the lookup cache.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bono_lookup_cache_misses_total",
				Help: "Resolutions that required an upstream request.",
			},
		),
		BatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bono_batch_duration_seconds",
				Help:    "Wall time of one resolution batch.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),
		MerchantsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bono_merchants",
				Help: "Merchants in the last generated document.",
			},
		),
		GroupsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bono_category_groups",
				Help: "Category groups in the last generated document.",
			},
		),
		RunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bono_run_duration_seconds",
				Help: "Wall time of the last pipeline run.",
			},
		),
		LastSuccessUnixMs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bono_last_success_timestamp_ms",
				Help: "Generation time of the last successful document, epoch milliseconds.",
			},
		),
	}

	m.Registry.MustRegister(
		m.ResolutionsTotal,
		m.UpstreamRequests,
		m.UpstreamLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.BatchDuration,
		m.MerchantsTotal,
		m.GroupsTotal,
		m.RunDuration,
		m.LastSuccessUnixMs,
	)

	return m
}

// StatusClass buckets an HTTP status code as "2xx", "3xx", ... or "error" for 0.
func StatusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", code/100)
}

// Push sends every collector to the Pushgateway at url under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
