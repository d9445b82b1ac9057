// Package metrics exports HTTP and questionnaire scoring metrics to Prometheus.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "geoportal"

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	scores          *prometheus.CounterVec
	wsConnections   prometheus.Gauge
}

// New registers the collectors on reg (the default registerer when nil).
// Collectors already registered by another instance are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template, method and status code.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		scores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questionnaire_scores_total",
			Help:      "Questionnaire scoring runs by policy and outcome.",
		}, []string{"policy", "outcome"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open questionnaire WebSocket connections.",
		}),
	}

	if err := register(reg, &m.requests); err != nil {
		return nil, err
	}
	if err := register(reg, &m.requestDuration); err != nil {
		return nil, err
	}
	if err := register(reg, &m.scores); err != nil {
		return nil, err
	}
	if err := register(reg, &m.wsConnections); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew is New that panics on registration errors.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return fmt.Errorf("register metric: %w", err)
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return fmt.Errorf("register metric: %w", err)
		}
		*c = existing
	}
	return nil
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveScore counts one scoring run.
func (m *Metrics) ObserveScore(policy, outcome string) {
	if m == nil {
		return
	}
	m.scores.WithLabelValues(policy, outcome).Inc()
}

// ConnectionOpened and ConnectionClosed track live WebSocket clients.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}
