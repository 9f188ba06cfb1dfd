// Package metrics exposes Prometheus collectors for the HTTP API, logins and
// the token sweeper.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "itemkeeper"

// Metrics groups every collector of the server. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginsTotal     *prometheus.CounterVec
	sweptTotal      prometheus.Counter
	sweepLastRun    prometheus.Gauge
	sweepErrors     prometheus.Counter
}

// New registers the collectors with registry, plus the Go and process
// collectors.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{registry: registry}

	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by result",
	}, []string{"result"})

	m.sweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "tokens_deleted_total",
		Help:      "Expired tokens deleted by the sweeper",
	})

	m.sweepLastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last successful sweep",
	})

	m.sweepErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "errors_total",
		Help:      "Sweeps that failed",
	})

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.loginsTotal,
		m.sweptTotal,
		m.sweepLastRun,
		m.sweepErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) LoginAttempt(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.loginsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) SweepCompleted(deleted int64, at time.Time) {
	if m == nil {
		return
	}
	m.sweptTotal.Add(float64(deleted))
	m.sweepLastRun.Set(float64(at.Unix()))
}

func (m *Metrics) SweepFailed() {
	if m == nil {
		return
	}
	m.sweepErrors.Inc()
}
