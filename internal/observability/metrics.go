package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	loadDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
	bodySizeBuckets     = []float64{100, 1024, 10240, 102400, 1048576}
)

// Metrics holds all Prometheus metric instruments for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Role directory metrics
	DirectoryLoadsTotal       *prometheus.CounterVec
	DirectoryLoadDuration     prometheus.Histogram
	DirectoryCacheHitsTotal   prometheus.Counter
	DirectoryCacheMissesTotal prometheus.Counter

	// Assignment metrics
	AssignmentResolutionsTotal *prometheus.CounterVec

	// Checkout metrics
	CheckoutResolutionsTotal *prometheus.CounterVec

	// Notification metrics
	NotificationsRoutedTotal         prometheus.Counter
	NotificationsUnderResourcedTotal prometheus.Counter
	DeliverySuppressedTotal          prometheus.Counter

	// History metrics
	HistoryLoadsTotal   *prometheus.CounterVec
	HistoryLoadDuration prometheus.Histogram
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ngazi_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ngazi_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ngazi_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Role directory
		DirectoryLoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ngazi_directory_loads_total",
			Help: "Total number of state role directory loads.",
		}, []string{"result"}),
		DirectoryLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ngazi_directory_load_duration_seconds",
			Help:    "State role directory load duration in seconds.",
			Buckets: loadDurationBuckets,
		}),
		DirectoryCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ngazi_directory_cache_hits_total",
			Help: "Total role directory cache hits.",
		}),
		DirectoryCacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ngazi_directory_cache_misses_total",
			Help: "Total role directory cache misses.",
		}),

		// Assignment
		AssignmentResolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ngazi_assignment_resolutions_total",
			Help: "Total number of assignment resolutions by outcome.",
		}, []string{"result"}),

		// Checkout
		CheckoutResolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ngazi_checkout_resolutions_total",
			Help: "Total number of checkout status resolutions by outcome.",
		}, []string{"status"}),

		// Notifications
		NotificationsRoutedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ngazi_notifications_routed_total",
			Help: "Total number of transition notifications routed.",
		}),
		NotificationsUnderResourcedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ngazi_notifications_under_resourced_total",
			Help: "Total number of notifications routed with a required state missing notify-enabled roles.",
		}),
		DeliverySuppressedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ngazi_delivery_suppressed_total",
			Help: "Total number of notification deliveries suppressed by the ledger.",
		}),

		// History
		HistoryLoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ngazi_history_loads_total",
			Help: "Total number of content history loads.",
		}, []string{"result"}),
		HistoryLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ngazi_history_load_duration_seconds",
			Help:    "Content history load duration in seconds.",
			Buckets: loadDurationBuckets,
		}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSizeBytes,
		// Role directory
		m.DirectoryLoadsTotal,
		m.DirectoryLoadDuration,
		m.DirectoryCacheHitsTotal,
		m.DirectoryCacheMissesTotal,
		// Assignment
		m.AssignmentResolutionsTotal,
		// Checkout
		m.CheckoutResolutionsTotal,
		// Notifications
		m.NotificationsRoutedTotal,
		m.NotificationsUnderResourcedTotal,
		m.DeliverySuppressedTotal,
		// History
		m.HistoryLoadsTotal,
		m.HistoryLoadDuration,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordCheckoutResolution records a checkout status resolution by outcome.
func (m *Metrics) RecordCheckoutResolution(status string) {
	m.CheckoutResolutionsTotal.WithLabelValues(status).Inc()
}

// RecordDeliverySuppressed records a notification delivery suppressed by the
// delivery ledger.
func (m *Metrics) RecordDeliverySuppressed() {
	m.DeliverySuppressedTotal.Inc()
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.RecordHTTPRequest(r.Method, routePattern(r), sw.status, time.Since(start), sw.bytes)
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
