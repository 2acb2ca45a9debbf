// Package metrics holds the Prometheus collectors shared by the producer and
// the consumer. Each process builds its own registry.
package metrics

import (
	"net/http"

	"github.com/Lutefd/log-pipeline/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "log_pipeline"

type Metrics struct {
	Registry *prometheus.Registry

	published      *prometheus.CounterVec
	publishFailed  *prometheus.CounterVec
	publishLatency prometheus.Histogram
	consumed       *prometheus.CounterVec
	decodeFailed   prometheus.Counter
	alerts         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "records_published_total",
			Help:      "Records acknowledged by the broker.",
		}, []string{"service"}),
		publishFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "publish_failures_total",
			Help:      "Records the broker did not acknowledge.",
		}, []string{"service"}),
		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "publish_duration_seconds",
			Help:      "Time from send to broker acknowledgment.",
			Buckets:   prometheus.DefBuckets,
		}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "records_processed_total",
			Help:      "Records decoded and classified.",
		}, []string{"service", "level"}),
		decodeFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "decode_failures_total",
			Help:      "Payloads skipped because they could not be decoded.",
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "alerts_total",
			Help:      "Alerts emitted by the classification handlers.",
		}, []string{"kind"}),
	}

	m.Registry.MustRegister(
		m.published,
		m.publishFailed,
		m.publishLatency,
		m.consumed,
		m.decodeFailed,
		m.alerts,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Published(service string, seconds float64) {
	m.published.WithLabelValues(service).Inc()
	m.publishLatency.Observe(seconds)
}

func (m *Metrics) PublishFailed(service string) {
	m.publishFailed.WithLabelValues(service).Inc()
}

func (m *Metrics) Consumed(service string, level model.LogLevel) {
	m.consumed.WithLabelValues(service, string(level)).Inc()
}

func (m *Metrics) DecodeFailed() {
	m.decodeFailed.Inc()
}

func (m *Metrics) Alert(kind model.AlertKind) {
	m.alerts.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
