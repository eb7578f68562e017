package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a lightweight view of the collected counters.
type MetricsSnapshot struct {
	RequestsTotal       uint64    `json:"requests_total"`
	CredentialHits      uint64    `json:"credential_hits"`
	CredentialMisses    uint64    `json:"credential_misses"`
	CredentialHitRatio  float64   `json:"credential_hit_ratio"`
	RemoteCallsTotal    uint64    `json:"remote_calls_total"`
	RemoteFailuresTotal uint64    `json:"remote_failures_total"`
	LinksCreatedTotal   uint64    `json:"links_created_total"`
	Goroutines          int       `json:"goroutines"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for the health endpoint.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	remoteDuration     *prometheus.HistogramVec
	remoteTotal        *prometheus.CounterVec
	credentialLatency  prometheus.Observer
	credentialHitRatio prometheus.Gauge
	credentialLookups  *prometheus.CounterVec
	linksCreated       prometheus.Counter
	rosterDuration     *prometheus.HistogramVec

	requestCount        uint64
	credentialHitCount  uint64
	credentialMissCount uint64
	remoteCount         uint64
	remoteFailureCount  uint64
	linksCreatedCount   uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	remoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timify_request_duration_seconds",
		Help:    "Duration of calls to the assessment service",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	remoteTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timify_requests_total",
		Help: "Calls to the assessment service by operation and status (0 means transport failure)",
	}, []string{"op", "status"})

	credentialLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "credential_cache_latency_seconds",
		Help:    "Latency for credential cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	credentialHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "credential_cache_hit_ratio",
		Help: "Ratio of credential cache hits to total lookups",
	})

	credentialLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_cache_lookups_total",
		Help: "Credential cache lookups by result",
	}, []string{"result"})

	linksCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timify_links_created_total",
		Help: "Assessment links created for students",
	})

	rosterDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roster_aggregation_duration_seconds",
		Help:    "Duration of roster aggregations by result code",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, remoteDuration, remoteTotal, credentialLatency, credentialHitRatio, credentialLookups, linksCreated, rosterDuration, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		remoteDuration:     remoteDuration,
		remoteTotal:        remoteTotal,
		credentialLatency:  credentialLatency,
		credentialHitRatio: credentialHitRatio,
		credentialLookups:  credentialLookups,
		linksCreated:       linksCreated,
		rosterDuration:     rosterDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveRemoteCall records one call to the assessment service.
func (m *MetricsService) ObserveRemoteCall(op string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.remoteDuration.WithLabelValues(op).Observe(duration.Seconds())
	m.remoteTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	atomic.AddUint64(&m.remoteCount, 1)
	if status != http.StatusOK {
		atomic.AddUint64(&m.remoteFailureCount, 1)
	}
}

// RecordCredentialLookup records a credential cache hit or miss and updates the hit ratio.
func (m *MetricsService) RecordCredentialLookup(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.credentialLatency.Observe(duration.Seconds())
	if hit {
		m.credentialLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.credentialHitCount, 1)
	} else {
		m.credentialLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.credentialMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.credentialHitCount)
	total := hits + atomic.LoadUint64(&m.credentialMissCount)
	if total > 0 {
		m.credentialHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordLinkCreated counts a link created for a student.
func (m *MetricsService) RecordLinkCreated() {
	if m == nil {
		return
	}
	m.linksCreated.Inc()
	atomic.AddUint64(&m.linksCreatedCount, 1)
}

// ObserveRoster records the duration of a roster aggregation.
func (m *MetricsService) ObserveRoster(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.rosterDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.credentialHitCount)
	misses := atomic.LoadUint64(&m.credentialMissCount)
	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return MetricsSnapshot{
		RequestsTotal:       atomic.LoadUint64(&m.requestCount),
		CredentialHits:      hits,
		CredentialMisses:    misses,
		CredentialHitRatio:  ratio,
		RemoteCallsTotal:    atomic.LoadUint64(&m.remoteCount),
		RemoteFailuresTotal: atomic.LoadUint64(&m.remoteFailureCount),
		LinksCreatedTotal:   atomic.LoadUint64(&m.linksCreatedCount),
		Goroutines:          runtime.NumGoroutine(),
		GeneratedAt:         time.Now().UTC(),
	}
}
