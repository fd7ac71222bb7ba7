package observ

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors the stores and the HTTP layer report to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	StoreOps        *prometheus.CounterVec
	StoreOpDuration *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StoreOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visaflow_store_operations_total",
				Help: "Entity store operations by entity, operation and result",
			},
			[]string{"entity", "op", "result"},
		),
		StoreOpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "visaflow_store_operation_duration_seconds",
				Help:    "Entity store operation duration including simulated latency",
				Buckets: []float64{.01, .05, .1, .2, .25, .3, .4, .5, 1},
			},
			[]string{"entity", "op"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visaflow_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "method", "code"},
		),
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visaflow_events_published_total",
				Help: "Change events published by type",
			},
			[]string{"type"},
		),
	}
}

// ObserveStoreOp records one store call that started at start.
func (m *Metrics) ObserveStoreOp(entity, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StoreOps.WithLabelValues(entity, op, result).Inc()
	m.StoreOpDuration.WithLabelValues(entity, op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRequest(route, method, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, code).Inc()
}

func (m *Metrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
}
