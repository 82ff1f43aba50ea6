// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests       *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	BlockWrites    *prometheus.CounterVec
	Logins         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedpoint",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "schedpoint",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		BlockWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedpoint",
			Name:      "time_block_writes_total",
			Help:      "Successful plan and actual writes by kind and operation.",
		}, []string{"kind", "op"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedpoint",
			Name:      "logins_total",
			Help:      "Sign-in attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Requests, m.RequestLatency, m.BlockWrites, m.Logins)
	return m
}

// BlockWritten counts a committed create, update or delete.
func (m *Metrics) BlockWritten(kind, op string) {
	if m == nil {
		return
	}
	m.BlockWrites.WithLabelValues(kind, op).Inc()
}

// LoginAttempt counts a sign-in by result ("ok" or "rejected").
func (m *Metrics) LoginAttempt(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}
