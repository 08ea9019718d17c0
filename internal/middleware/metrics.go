package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
)

// Metrics holds the Prometheus collectors of the service on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge

	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	toolCallsTotal   *prometheus.CounterVec
	llmTurnsTotal    *prometheus.CounterVec
	llmTokensTotal   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitch", Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pitch", Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pitch", Subsystem: "http", Name: "in_flight_requests",
			Help: "Requests currently being served.",
		}),
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitch", Subsystem: "analysis", Name: "total",
			Help: "Finished analyses by status and error type.",
		}, []string{"status", "error_type"}),
		analysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pitch", Subsystem: "analysis", Name: "duration_seconds",
			Help:    "Wall time of an analysis.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		}, []string{"status"}),
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitch", Subsystem: "crew", Name: "tool_calls_total",
			Help: "Tool invocations made by agents.",
		}, []string{"tool", "status"}),
		llmTurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitch", Subsystem: "llm", Name: "turns_total",
			Help: "Model calls per agent.",
		}, []string{"agent"}),
		llmTokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitch", Subsystem: "llm", Name: "tokens_total",
			Help: "Tokens reported by the provider.",
		}, []string{"direction"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal, m.requestDuration, m.requestsInFlight,
		m.analysesTotal, m.analysisDuration,
		m.toolCallsTotal, m.llmTurnsTotal, m.llmTokensTotal,
	)
	return m
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()

		rw := wrap(w)
		next.ServeHTTP(rw, r)

		path := routeLabel(r.URL.Path)
		m.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routeLabel collapses per-resource paths to keep label cardinality bounded.
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/reports/"):
		return "/reports/{name}"
	case strings.HasPrefix(path, "/analyses/"):
		return "/analyses/{id}"
	case strings.HasPrefix(path, "/ui/history/"):
		return "/ui/history/{id}"
	default:
		return path
	}
}

func (m *Metrics) ObserveAnalysis(status analysis.Status, errorType string, seconds float64) {
	m.analysesTotal.WithLabelValues(string(status), errorType).Inc()
	m.analysisDuration.WithLabelValues(string(status)).Observe(seconds)
}

func (m *Metrics) ObserveToolCall(tool string, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	m.toolCallsTotal.WithLabelValues(tool, status).Inc()
}

func (m *Metrics) ObserveTurn(agent string, promptTokens, completionTokens int) {
	m.llmTurnsTotal.WithLabelValues(agent).Inc()
	if promptTokens > 0 {
		m.llmTokensTotal.WithLabelValues("in").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokensTotal.WithLabelValues("out").Add(float64(completionTokens))
	}
}
