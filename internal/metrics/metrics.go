// Package metrics exposes Prometheus counters for the ledger engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "despesas"

// Recorder owns the ledger collectors. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	cacheRequests *prometheus.CounterVec
	invalidations prometheus.Counter
	evictions     *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	rollbacks     *prometheus.CounterVec
	unitDuration  *prometheus.HistogramVec
	inconsistent  prometheus.Gauge
}

// New registers the ledger collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_cache_requests_total",
			Help:      "Aggregate cache lookups by operation and result (hit or miss).",
		}, []string{"op", "result"}),
		invalidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_cache_invalidations_total",
			Help:      "Times the aggregate cache was cleared by a mutation.",
		}),
		evictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_cache_evictions_total",
			Help:      "Aggregate results pushed out by the cache size bound, by operation.",
		}, []string{"op"}),
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Committed mutations by operation.",
		}, []string{"op"}),
		rollbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Units of work rolled back by operation.",
		}, []string{"op"}),
		unitDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_duration_seconds",
			Help:      "Duration of mutating units of work.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		inconsistent: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inconsistent_records",
			Help:      "Records whose stored total drifted from the recomputed one at the last sweep.",
		}),
	}
}

func (r *Recorder) CacheHit(op string) {
	if r == nil {
		return
	}
	r.cacheRequests.WithLabelValues(op, "hit").Inc()
}

func (r *Recorder) CacheMiss(op string) {
	if r == nil {
		return
	}
	r.cacheRequests.WithLabelValues(op, "miss").Inc()
}

func (r *Recorder) CacheInvalidated() {
	if r == nil {
		return
	}
	r.invalidations.Inc()
}

func (r *Recorder) CacheEvicted(op string) {
	if r == nil {
		return
	}
	r.evictions.WithLabelValues(op).Inc()
}

// Committed records a successful unit of work.
func (r *Recorder) Committed(op string, took time.Duration) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(op).Inc()
	r.unitDuration.WithLabelValues(op).Observe(took.Seconds())
}

// RolledBack records a failed unit of work.
func (r *Recorder) RolledBack(op string, took time.Duration) {
	if r == nil {
		return
	}
	r.rollbacks.WithLabelValues(op).Inc()
	r.unitDuration.WithLabelValues(op).Observe(took.Seconds())
}

// Inconsistent sets the drift count found by the last consistency sweep.
func (r *Recorder) Inconsistent(n int) {
	if r == nil {
		return
	}
	r.inconsistent.Set(float64(n))
}
