package metrics

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resourcedesk/internal/lifecycle"
)

var latencyBuckets = []float64{
	0.001, 0.002, 0.005,
	0.01, 0.02, 0.05,
	0.1, 0.2, 0.5,
	1, 2, 5, 10,
}

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resourcedesk",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of console API requests broken down by route and result.",
	}, []string{"route", "result"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "resourcedesk",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "Latency distribution for console API requests.",
		Buckets:   latencyBuckets,
	}, []string{"route", "result"})

	backendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resourcedesk",
		Subsystem: "backend",
		Name:      "calls_total",
		Help:      "Calls made to the records backend by endpoint and result.",
	}, []string{"endpoint", "result"})

	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "resourcedesk",
		Subsystem: "backend",
		Name:      "latency_seconds",
		Help:      "Latency distribution for calls to the records backend.",
		Buckets:   latencyBuckets,
	}, []string{"endpoint", "result"})

	staleDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resourcedesk",
		Subsystem: "view",
		Name:      "stale_responses_discarded_total",
		Help:      "List responses dropped because a newer fetch had been issued.",
	}, []string{"kind"})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resourcedesk",
		Subsystem: "lifecycle",
		Name:      "transitions_total",
		Help:      "Status transitions requested through the console by kind, action and outcome.",
	}, []string{"kind", "action", "outcome"})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "resourcedesk",
		Subsystem: "queue",
		Name:      "items",
		Help:      "Pending bookings in the review queue by display class.",
	}, []string{"class"})
)

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveBackend matches backend.Observer.
func ObserveBackend(endpoint, result string, elapsed time.Duration) {
	backendCalls.WithLabelValues(endpoint, result).Inc()
	backendLatency.WithLabelValues(endpoint, result).Observe(elapsed.Seconds())
}

func StaleDiscarded(kind lifecycle.Kind) {
	staleDiscarded.WithLabelValues(string(kind)).Inc()
}

func Transition(kind lifecycle.Kind, action lifecycle.ActionKind, outcome string) {
	transitions.WithLabelValues(string(kind), string(action), outcome).Inc()
}

// QueueDepth records the size of each display class after a queue refresh.
func QueueDepth(counts map[lifecycle.DisplayClass]int) {
	for _, c := range []lifecycle.DisplayClass{lifecycle.ClassNeedsReview, lifecycle.ClassNormal, lifecycle.ClassResolved} {
		queueDepth.WithLabelValues(string(c)).Set(float64(counts[c]))
	}
}

type statusRecordingResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecordingResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecordingResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecordingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecordingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

// Instrument counts requests by chi route pattern, so ids never become labels.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecordingResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		result := ResultLabel(rec.status)
		apiRequests.WithLabelValues(route, result).Inc()
		apiLatency.WithLabelValues(route, result).Observe(time.Since(start).Seconds())
	})
}

func ResultLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
