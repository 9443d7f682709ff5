package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "akasha"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	sends        *prometheus.CounterVec
	replyLatency *prometheus.HistogramVec
	wsClients    prometheus.Gauge
	liveSessions prometheus.GaugeFunc
}

// New builds the collectors. liveSessions may be nil.
func New(liveSessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "sends_total",
			Help:      "Messages sent to the assistant, by outcome.",
		}, []string{"status"}),
		replyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "reply_latency_seconds",
			Help:      "Time spent waiting for the assistant.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"status"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Open websocket connections on this instance.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sends,
		m.replyLatency,
		m.wsClients,
	)

	if liveSessions != nil {
		m.liveSessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "live_sessions",
			Help:      "Chat sessions held in memory.",
		}, func() float64 { return float64(liveSessions()) })
		m.registry.MustRegister(m.liveSessions)
	}

	return m
}

func (m *Metrics) ObserveSend(status string, latency time.Duration) {
	m.sends.WithLabelValues(status).Inc()
	m.replyLatency.WithLabelValues(status).Observe(latency.Seconds())
}

func (m *Metrics) ClientConnected() {
	m.wsClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	m.wsClients.Dec()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
