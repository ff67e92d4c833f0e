package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Buckets: 1ms to 10s.
	HTTPRequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)

	HTTPResponseSize = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response body size in bytes",
			Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "route"},
	)
)

type countingWriter struct {
	http.ResponseWriter
	code int
	size int
}

func (w *countingWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *countingWriter) Write(p []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

// HTTPMiddleware counts requests per method, collapsed route and status and
// observes latency and body size.
func HTTPMiddleware(next http.Handler) http.Handler {
	observed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		cw := &countingWriter{ResponseWriter: w}
		next.ServeHTTP(cw, r)
		if cw.code == 0 {
			cw.code = http.StatusOK
		}

		route := RouteLabel(r.URL.Path)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(cw.code)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(started).Seconds())
		HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(cw.size))
	})
	return promhttp.InstrumentHandlerInFlight(HTTPRequestsInFlight, observed)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

var fixedSegments = map[string]bool{
	"login": true, "logout": true, "signup": true, "delete": true, "thanks": true,
}

// RouteLabel collapses event slugs in a request path so the label set stays
// bounded: "/jazz-night/thanks" becomes "/{slug}/thanks" and
// "/admin/jazz-night" becomes "/admin/{slug}".
func RouteLabel(path string) string {
	switch path {
	case "", "/":
		return "/"
	case "/healthz", "/readyz", "/metrics":
		return path
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	out := make([]string, 0, len(segments))
	for i, segment := range segments {
		switch {
		case i == 0 && (segment == "user" || segment == "admin" || segment == "static"):
			out = append(out, segment)
		case fixedSegments[segment]:
			out = append(out, segment)
		case i > 0 && segments[0] == "static":
			out = append(out, "{file}")
		default:
			out = append(out, "{slug}")
		}
	}
	return "/" + strings.Join(out, "/")
}
