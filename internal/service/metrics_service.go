package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

// runningMean keeps a count and a summed duration for snapshot averages.
type runningMean struct {
	count atomic.Uint64
	total atomic.Uint64
}

func (r *runningMean) add(d time.Duration) {
	r.count.Add(1)
	r.total.Add(uint64(d.Nanoseconds()))
}

func (r *runningMean) millis() (uint64, float64) {
	n := r.count.Load()
	if n == 0 {
		return 0, 0
	}
	return n, float64(r.total.Load()) / float64(n) / float64(time.Millisecond)
}

// MetricsService owns the Prometheus registry and the counters behind /health snapshots.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	cacheLookup  *prometheus.HistogramVec
	cacheWrite   prometheus.Histogram
	dbDuration   *prometheus.HistogramVec
	submissions  *prometheus.CounterVec
	ratings      prometheus.Histogram
	reportJobs   *prometheus.CounterVec

	requests    runningMean
	queries     runningMean
	hits        atomic.Uint64
	misses      atomic.Uint64
	submitCount atomic.Uint64
}

// NewMetricsService registers the HTTP, cache, database and IPCRF collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}
	httpLabels := []string{"method", "path", "status"}

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_request_duration_seconds", Help: "HTTP request latency by route template",
	}, httpLabels)
	m.httpTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total", Help: "HTTP requests by route template",
	}, httpLabels)
	m.cacheLookup = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "cache_lookup_seconds", Help: "Cache read latency by outcome",
	}, []string{"result"})
	m.cacheWrite = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "cache_write_seconds", Help: "Cache write latency",
	})
	m.dbDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "db_query_duration_seconds", Help: "Latency of instrumented database queries",
	}, []string{"query"})
	m.submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ipcrf_submissions_total", Help: "IPCRF submissions reaching each lifecycle status",
	}, []string{"status"})
	// Bucket bounds follow the adjectival thresholds.
	m.ratings = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "ipcrf_numerical_rating", Help: "Distribution of stored numerical ratings",
		Buckets: []float64{1.5, 2.5, 3.5, 4.5, 5},
	})
	m.reportJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_jobs_total", Help: "Report jobs by type and final status",
	}, []string{"type", "status"})
	hitRatio := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cache_hit_ratio", Help: "Share of cache lookups served from cache",
	}, m.hitRatio)

	m.registry.MustRegister(
		m.httpDuration, m.httpTotal, m.cacheLookup, m.cacheWrite, m.dbDuration,
		m.submissions, m.ratings, m.reportJobs, hitRatio,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, path, code).Inc()
	m.requests.add(duration)
}

// RecordCacheOperation records a cache lookup outcome.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	m.cacheLookup.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveCacheWrite records a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing under label.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.queries.add(duration)
}

// RecordSubmission counts a submission entering status. Drafts also feed the rating histogram.
func (m *MetricsService) RecordSubmission(status rating.Status, numerical float64) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(string(status)).Inc()
	if status == rating.StatusDraft {
		m.ratings.Observe(numerical)
		m.submitCount.Add(1)
	}
}

// RecordReportJob counts a report job reaching a terminal status.
func (m *MetricsService) RecordReportJob(reportType models.ReportType, status models.ReportStatus) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(string(reportType), string(status)).Inc()
}

func (m *MetricsService) hitRatio() float64 {
	hits := m.hits.Load()
	lookups := hits + m.misses.Load()
	if lookups == 0 {
		return 0
	}
	return float64(hits) / float64(lookups)
}

// Snapshot returns aggregated counters for the health endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests, avgRequest := m.requests.millis()
	queries, avgQuery := m.queries.millis()
	return models.SystemMetrics{
		CacheHitRatio:            m.hitRatio(),
		CacheHits:                m.hits.Load(),
		CacheMisses:              m.misses.Load(),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequest,
		DBQueryCount:             queries,
		AverageDBQueryDurationMs: avgQuery,
		SubmissionsRecorded:      m.submitCount.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
