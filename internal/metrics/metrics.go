package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/dao-risk/internal/model"
)

// Sync cycle results.
const (
	ResultOK           = "ok"
	ResultFetchError   = "fetch_error"
	ResultPersistError = "persist_error"
	ResultEmpty        = "empty"
)

// Metrics holds all collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	syncCycles    *prometheus.CounterVec
	syncDuration  *prometheus.HistogramVec
	itemsSaved    *prometheus.CounterVec
	itemsDropped  *prometheus.CounterVec
	cursor        *prometheus.GaugeVec
	cacheRequests *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
}

// New creates collectors under namespace and registers them, plus the Go
// runtime and process collectors, on a fresh registry.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_cycles_total",
				Help:      "Sync attempts per stream by result",
			},
			[]string{"stream", "result"},
		),
		syncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Duration of one stream sync in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stream"},
		),
		itemsSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_items_saved_total",
				Help:      "Items upserted per stream",
			},
			[]string{"stream"},
		),
		itemsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_items_malformed_total",
				Help:      "Items dropped for failing validation",
			},
			[]string{"stream"},
		),
		cursor: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sync_cursor",
				Help:      "Current numeric cursor position per stream",
			},
			[]string{"stream"},
		),
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Provider cache lookups by outcome",
			},
			[]string{"cache", "outcome"},
		),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_fetches_total",
				Help:      "Upstream provider fetches by result",
			},
			[]string{"provider", "result"},
		),
	}

	m.registry.MustRegister(
		m.syncCycles,
		m.syncDuration,
		m.itemsSaved,
		m.itemsDropped,
		m.cursor,
		m.cacheRequests,
		m.providerCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSync records one stream sync attempt.
func (m *Metrics) ObserveSync(stream model.Stream, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.syncCycles.WithLabelValues(string(stream), result).Inc()
	m.syncDuration.WithLabelValues(string(stream)).Observe(d.Seconds())
}

// AddSaved counts persisted items.
func (m *Metrics) AddSaved(stream model.Stream, n int) {
	if m == nil {
		return
	}
	m.itemsSaved.WithLabelValues(string(stream)).Add(float64(n))
}

// AddDropped counts malformed items.
func (m *Metrics) AddDropped(stream model.Stream, n int) {
	if m == nil {
		return
	}
	m.itemsDropped.WithLabelValues(string(stream)).Add(float64(n))
}

// SetCursor publishes the cursor position if it is numeric.
func (m *Metrics) SetCursor(stream model.Stream, c model.Cursor) {
	if m == nil {
		return
	}
	if c.IsZero() {
		m.cursor.WithLabelValues(string(stream)).Set(0)
		return
	}
	if v, err := strconv.ParseFloat(string(c), 64); err == nil {
		m.cursor.WithLabelValues(string(stream)).Set(v)
	}
}

// CacheHit counts a cache hit.
func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(cache, "hit").Inc()
}

// CacheMiss counts a cache miss.
func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(cache, "miss").Inc()
}

// ObserveProvider records one upstream fetch.
func (m *Metrics) ObserveProvider(provider string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = "error"
	}
	m.providerCalls.WithLabelValues(provider, result).Inc()
}
