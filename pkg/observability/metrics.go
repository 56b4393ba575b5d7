package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records dispatch activity in Prometheus collectors.
type Metrics struct {
	Throws           *prometheus.CounterVec
	Deliveries       *prometheus.CounterVec
	Failures         *prometheus.CounterVec
	Stops            *prometheus.CounterVec
	DeliveryDuration *prometheus.HistogramVec
	ThrowDuration    *prometheus.HistogramVec
	Notified         *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsWith(reg)
	if err != nil {
		return nil, err
	}
	m.gatherer = reg
	return m, nil
}

// NewMetricsWith creates the collectors and registers them on reg.
func NewMetricsWith(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Throws: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aware_throws_total",
				Help: "Total number of thrown signals",
			},
			[]string{"signal"},
		),
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aware_deliveries_total",
				Help: "Total number of successful handler invocations",
			},
			[]string{"signal", "handler"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aware_delivery_failures_total",
				Help: "Total number of failed handler invocations",
			},
			[]string{"signal", "handler"},
		),
		Stops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aware_throws_stopped_total",
				Help: "Total number of throws halted by a recipient",
			},
			[]string{"signal"},
		),
		DeliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "aware_delivery_duration_seconds",
				Help: "Duration of handler invocations",
			},
			[]string{"handler"},
		),
		ThrowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "aware_throw_duration_seconds",
				Help: "Duration of whole throws",
			},
			[]string{"signal"},
		),
		Notified: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aware_notified_subscribers",
				Help:    "Number of subscribers notified per throw",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
			[]string{"signal"},
		),
		gatherer: prometheus.DefaultGatherer,
	}

	for _, c := range []prometheus.Collector{m.Throws, m.Deliveries, m.Failures, m.Stops, m.DeliveryDuration, m.ThrowDuration, m.Notified} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnThrow: func(ctx context.Context, e *domain.ThrowEvent) {
			m.Throws.WithLabelValues(e.Signal).Inc()
		},
		OnDeliver: func(ctx context.Context, e *domain.DeliveryEvent) {
			m.Deliveries.WithLabelValues(e.Signal, e.Handler).Inc()
			m.DeliveryDuration.WithLabelValues(e.Handler).Observe(e.Duration.Seconds())
		},
		OnFailure: func(ctx context.Context, e *domain.DeliveryEvent) {
			m.Failures.WithLabelValues(e.Signal, e.Handler).Inc()
			m.DeliveryDuration.WithLabelValues(e.Handler).Observe(e.Duration.Seconds())
		},
		OnComplete: func(ctx context.Context, e *domain.ThrowEvent) {
			m.ThrowDuration.WithLabelValues(e.Signal).Observe(e.Duration.Seconds())
			m.Notified.WithLabelValues(e.Signal).Observe(float64(e.Notified))
			if e.Stopped {
				m.Stops.WithLabelValues(e.Signal).Inc()
			}
		},
	}
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
