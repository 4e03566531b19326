// Package metrics holds process-level Prometheus metrics and the HTTP
// instrumentation middleware.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds HTTP and task-queue metrics shared across modules.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TasksConsumed       *prometheus.CounterVec
	TasksEnqueued       prometheus.Counter
	OutboxPublished     prometheus.Counter
	ProviderRetries     *prometheus.CounterVec
}

// New creates and registers all process-level metrics with reg. A nil reg
// uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadflow_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "method", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"route", "method"}),
		TasksConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadflow_tasks_consumed_total",
			Help: "Campaign tasks consumed by outcome (succeeded, retried, exhausted, skipped, invalid)",
		}, []string{"outcome"}),
		TasksEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadflow_tasks_enqueued_total",
			Help: "Campaign tasks written to the task topic",
		}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadflow_outbox_published_total",
			Help: "Audit outbox rows relayed to the broker",
		}),
		ProviderRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadflow_provider_retries_total",
			Help: "Call-level retries of provider requests",
		}, []string{"call"}),
	}
}

// IncrementTask records a consumed task outcome.
func (m *Metrics) IncrementTask(outcome string) {
	if m == nil {
		return
	}
	m.TasksConsumed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementEnqueued() {
	if m == nil {
		return
	}
	m.TasksEnqueued.Inc()
}

func (m *Metrics) AddOutboxPublished(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OutboxPublished.Add(float64(n))
}

// IncrementProviderRetry matches the retry executor's OnRetry hook.
func (m *Metrics) IncrementProviderRetry(call string, _ int, _ error, _ time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRetries.WithLabelValues(call).Inc()
}

// Middleware records request count and latency labelled by chi route
// pattern, which keeps label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
