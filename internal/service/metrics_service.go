package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

const metricsNamespace = "placement"

// MetricsService owns the Prometheus registry and keeps running totals for
// the JSON summary. A nil *MetricsService ignores every observation.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requests     *prometheus.HistogramVec
	operations   *prometheus.CounterVec
	filledSlots  *prometheus.GaugeVec
	cacheLookups *prometheus.CounterVec
	cacheLatency *prometheus.HistogramVec
	writes       *prometheus.HistogramVec

	mu       sync.Mutex
	reqs     timedTally
	persists timedTally
	hits     uint64
	misses   uint64
	outcomes map[string]uint64
}

type timedTally struct {
	n   uint64
	sum time.Duration
}

func (t *timedTally) add(d time.Duration) {
	t.n++
	t.sum += d
}

func (t timedTally) summary() models.TimedCount {
	out := models.TimedCount{Total: t.n}
	if t.n > 0 {
		out.AverageMs = float64(t.sum) / float64(t.n) / float64(time.Millisecond)
	}
	return out
}

// NewMetricsService registers the placement collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Lifecycle operations by outcome code.",
		}, []string{"operation", "outcome"}),
		filledSlots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "filled_slots",
			Help:      "Filled slots per internship after its last mutation.",
		}, []string{"internship_id"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery_cache",
			Name:      "lookups_total",
			Help:      "Discovery cache lookups by result.",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery_cache",
			Name:      "duration_seconds",
			Help:      "Discovery cache round trips.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}, []string{"op"}),
		writes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "persistence",
			Name:      "write_duration_seconds",
			Help:      "Durable writes including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		outcomes: make(map[string]uint64),
	}
	m.registry.MustRegister(
		m.requests, m.operations, m.filledSlots, m.cacheLookups, m.cacheLatency, m.writes,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
	m.mu.Lock()
	m.reqs.add(duration)
	m.mu.Unlock()
}

// ObserveOperation counts a lifecycle operation under its outcome: "ok" or the error code.
func (m *MetricsService) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.mu.Lock()
	m.outcomes[operation+":"+outcome]++
	m.mu.Unlock()
}

// ObserveFilledSlots publishes the slot usage of internships touched by a mutation.
func (m *MetricsService) ObserveFilledSlots(internships []models.Internship) {
	if m == nil {
		return
	}
	for _, item := range internships {
		m.filledSlots.WithLabelValues(item.ID).Set(float64(item.FilledSlots))
	}
}

// ForgetInternship drops the slot gauge of a deleted internship.
func (m *MetricsService) ForgetInternship(id string) {
	if m == nil {
		return
	}
	m.filledSlots.DeleteLabelValues(id)
}

// ObserveCacheLookup records a discovery cache read.
func (m *MetricsService) ObserveCacheLookup(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	m.mu.Lock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
	m.mu.Unlock()
}

// ObserveCacheWrite records a discovery cache fill.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// ObservePersistWrite records one durable write, retries included.
func (m *MetricsService) ObservePersistWrite(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(job).Observe(duration.Seconds())
	m.mu.Lock()
	m.persists.add(duration)
	m.mu.Unlock()
}

// Snapshot summarises the running totals.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cache := models.CacheCounts{Hits: m.hits, Misses: m.misses}
	if lookups := m.hits + m.misses; lookups > 0 {
		cache.HitRatio = float64(m.hits) / float64(lookups)
	}
	ops := make(map[string]uint64, len(m.outcomes))
	for k, v := range m.outcomes {
		ops[k] = v
	}
	return models.SystemMetrics{
		Requests:       m.reqs.summary(),
		PersistWrites:  m.persists.summary(),
		DiscoveryCache: cache,
		Operations:     ops,
		Goroutines:     runtime.NumGoroutine(),
		GeneratedAt:    time.Now().UTC(),
	}
}
