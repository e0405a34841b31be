package httpmetrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devnla/backend-express/internal/observability/metrics"
)

type Collector struct {
	requests *prometheus.CounterVec
	inFlight prometheus.Gauge
	duration *prometheus.HistogramVec
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func New() *Collector {
	return NewCollector(metrics.HTTPRequestsTotal, metrics.HTTPRequestsInFlight, metrics.HTTPRequestDurationSeconds)
}

// NewCollector lets tests supply unregistered vectors.
func NewCollector(requests *prometheus.CounterVec, inFlight prometheus.Gauge, duration *prometheus.HistogramVec) *Collector {
	return &Collector{requests: requests, inFlight: inFlight, duration: duration}
}

func (c *Collector) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := RouteLabel(r.URL.Path)

		c.requests.WithLabelValues(r.Method, route).Inc()
		c.inFlight.Inc()
		defer c.inFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		statusClass := strconv.Itoa(rec.status/100) + "xx"
		c.duration.WithLabelValues(r.Method, route, statusClass).Observe(time.Since(start).Seconds())
	})
}
