package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the search pipeline.
// Components treat a nil *Metrics as "metrics disabled".
type Metrics struct {
	CacheLookups     *prometheus.CounterVec
	CacheEvictions   prometheus.Counter
	CacheExpirations prometheus.Counter
	CachedKeys       prometheus.Gauge
	SnapshotFailures prometheus.Counter

	BranchDuration *prometheus.HistogramVec
	BranchFailures *prometheus.CounterVec

	ProviderAttempts *prometheus.CounterVec

	Resolutions *prometheus.CounterVec
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credsearch_cache_lookups_total",
			Help: "Cache lookups by result (hit or miss)",
		}, []string{"result"}),
		CacheEvictions: f.NewCounter(prometheus.CounterOpts{
			Name: "credsearch_cache_evictions_total",
			Help: "Entries evicted because the cache was at capacity",
		}),
		CacheExpirations: f.NewCounter(prometheus.CounterOpts{
			Name: "credsearch_cache_expirations_total",
			Help: "Entries removed because they outlived the TTL",
		}),
		CachedKeys: f.NewGauge(prometheus.GaugeOpts{
			Name: "credsearch_cache_keys",
			Help: "Current number of cached search keys",
		}),
		SnapshotFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "credsearch_cache_snapshot_failures_total",
			Help: "Cache snapshot reads or writes that failed",
		}),
		BranchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credsearch_store_branch_duration_seconds",
			Help:    "Duration of local store fan-out sub-queries",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"branch"}),
		BranchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credsearch_store_branch_failures_total",
			Help: "Local store sub-queries that failed and contributed nothing",
		}, []string{"branch"}),
		ProviderAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credsearch_provider_attempts_total",
			Help: "External provider attempts by outcome",
		}, []string{"outcome"}),
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credsearch_resolutions_total",
			Help: "Resolve calls by outcome (cache, backend, rejected, cancelled)",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) RecordCacheHit()  { m.CacheLookups.WithLabelValues("hit").Inc() }
func (m *Metrics) RecordCacheMiss() { m.CacheLookups.WithLabelValues("miss").Inc() }

func (m *Metrics) RecordEviction() { m.CacheEvictions.Inc() }

func (m *Metrics) RecordExpirations(n int) { m.CacheExpirations.Add(float64(n)) }

func (m *Metrics) SetCachedKeys(n int) { m.CachedKeys.Set(float64(n)) }

func (m *Metrics) RecordSnapshotFailure() { m.SnapshotFailures.Inc() }

func (m *Metrics) ObserveBranch(branch string, seconds float64) {
	m.BranchDuration.WithLabelValues(branch).Observe(seconds)
}

func (m *Metrics) RecordBranchFailure(branch string) {
	m.BranchFailures.WithLabelValues(branch).Inc()
}

func (m *Metrics) RecordProviderAttempt(outcome string) {
	m.ProviderAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordResolution(outcome string) {
	m.Resolutions.WithLabelValues(outcome).Inc()
}
