// Package metrics exposes the Prometheus collectors for report generation and
// attendance clock transitions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report labels.
const (
	ReportFinance    = "finance"
	ReportAttendance = "attendance"
)

// Metrics groups the collectors on a dedicated registry.
type Metrics struct {
	registry         *prometheus.Registry
	reportDuration   *prometheus.HistogramVec
	reportFailures   *prometheus.CounterVec
	clockTransitions *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpRejected     *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, plus Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "condo",
			Name:      "report_duration_seconds",
			Help:      "Time spent generating a report.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"report"}),
		reportFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "condo",
			Name:      "report_failures_total",
			Help:      "Reports that ended in an error.",
		}, []string{"report"}),
		clockTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "condo",
			Name:      "clock_transitions_total",
			Help:      "Attendance clock transitions by kind.",
		}, []string{"transition"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "condo",
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
		httpRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "condo",
			Name:      "http_rejected_total",
			Help:      "Requests refused or flagged by the security middleware.",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.reportDuration,
		m.reportFailures,
		m.clockTransitions,
		m.httpRequests,
		m.httpRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveReport records the outcome of one report run. Safe on a nil receiver.
func (m *Metrics) ObserveReport(report string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.reportDuration.WithLabelValues(report).Observe(time.Since(started).Seconds())
	if err != nil {
		m.reportFailures.WithLabelValues(report).Inc()
	}
}

// IncClock counts a clock transition. Safe on a nil receiver.
func (m *Metrics) IncClock(transition string) {
	if m == nil {
		return
	}
	m.clockTransitions.WithLabelValues(transition).Inc()
}

// ObserveHTTP counts one served request. Safe on a nil receiver.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// IncRejected counts a request stopped or flagged for reason
// ("rate_limit", "suspicious"). Safe on a nil receiver.
func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.httpRejected.WithLabelValues(reason).Inc()
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
