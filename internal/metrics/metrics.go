package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current Number of HTTP requests being processed.",
		},
	)

	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart mutations by operation and outcome code.",
		},
		[]string{"operation", "outcome"},
	)

	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Checkout attempts by outcome code.",
		},
		[]string{"outcome"},
	)

	orderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_transitions_total",
			Help: "Applied order status transitions.",
		},
		[]string{"from", "to"},
	)

	lockWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_owner_lock_wait_seconds",
			Help:    "Time spent waiting for a per-owner cart lock.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 3},
		},
	)

	notifierDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_notifier_dropped_total",
			Help: "Change events dropped because a subscriber buffer was full.",
		},
	)

	notifierSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_notifier_subscribers",
			Help: "Open change stream subscriptions on this instance.",
		},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_lookups_total",
			Help: "Cache lookups by key prefix and result.",
		},
		[]string{"prefix", "result"},
	)

	janitorSweptTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_janitor_swept_total",
			Help: "Records removed or expired by the background janitor.",
		},
		[]string{"kind"},
	)
)

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

// wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach Flush for the SSE stream.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := newResponseWriter(w)

		defer func() {

			duration := time.Since(start)
			statusCodeStr := strconv.Itoa(rw.statusCode)

			// ServeMux records the matched pattern on the request, keeping
			// label cardinality bounded. Must wrap the mux directly.
			pathPattern := r.Pattern
			if pathPattern == "" {
				pathPattern = "unmatched"
			}

			httpRequestsTotal.WithLabelValues(statusCodeStr, r.Method, pathPattern).Inc()
			httpRequestsDuration.WithLabelValues(r.Method, pathPattern).Observe(duration.Seconds())
			httpRequestsInFlight.Dec()

		}()

		next.ServeHTTP(rw, r)

	})
}

// Outcome labels use the error code, "ok" on success.
func outcome(code string) string {
	if code == "" {
		return "ok"
	}

	return code
}

func ObserveCartMutation(operation, errCode string) {
	cartMutationsTotal.WithLabelValues(operation, outcome(errCode)).Inc()
}

func ObserveCheckout(errCode string) {
	checkoutsTotal.WithLabelValues(outcome(errCode)).Inc()
}

func ObserveOrderTransition(from, to string) {
	orderTransitionsTotal.WithLabelValues(from, to).Inc()
}

func ObserveLockWait(d time.Duration) {
	lockWaitSeconds.Observe(d.Seconds())
}

func NotifierDropped() {
	notifierDroppedTotal.Inc()
}

func NotifierSubscribed(delta int) {
	notifierSubscribers.Add(float64(delta))
}

// ObserveCacheLookup labels by the key prefix ("variant" for "variant:42").
func ObserveCacheLookup(key string, hit bool) {
	prefix, _, _ := strings.Cut(key, ":")

	result := "miss"
	if hit {
		result = "hit"
	}

	cacheLookupsTotal.WithLabelValues(prefix, result).Inc()
}

func ObserveSwept(kind string, n int64) {
	if n > 0 {
		janitorSweptTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
