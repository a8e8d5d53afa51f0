// Package metrics holds the prometheus collectors the orchestration
// engine records: cache hits and misses per tier, registry fetches in
// flight, and vulnerability-pass durations. Collectors are optional
// everywhere they are consumed, so a missing metrics listener never
// changes behavior.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quay/zlog"
)

// Collectors bundles every metric the engine records, registered once at
// startup via Register.
type Collectors struct {
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	InFlightFetch prometheus.Gauge
	VulnPassSecs  prometheus.Histogram
}

// New builds an unregistered Collectors.
func New() *Collectors {
	return &Collectors{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depls",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache lookups that found a live entry, by tier.",
		}, []string{"tier"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depls",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache lookups that found no live entry, by tier.",
		}, []string{"tier"}),
		InFlightFetch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "depls",
			Subsystem: "pipeline",
			Name:      "in_flight_fetches",
			Help:      "Registry fetches currently in flight across all documents.",
		}),
		VulnPassSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "depls",
			Subsystem: "vuln",
			Name:      "pass_duration_seconds",
			Help:      "Wall-clock duration of one background vulnerability pass.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Register registers c's collectors against the default registry, logging
// (rather than failing) on a duplicate registration so tests and repeated
// backend construction don't panic.
func (c *Collectors) Register(ctx context.Context) {
	for _, coll := range []prometheus.Collector{c.CacheHits, c.CacheMisses, c.InFlightFetch, c.VulnPassSecs} {
		if err := prometheus.Register(coll); err != nil {
			zlog.Info(ctx).Err(err).Msg("metric already registered")
		}
	}
}

// Handler returns the promhttp handler for an optional debug listener,
// started by cmd/depls only when --metrics-addr is set.
func Handler() http.Handler {
	return promhttp.Handler()
}
