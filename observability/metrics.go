// Package observability aggregates relay telemetry: prometheus
// counters for the dispatcher and handlers fed by the lossy telemetry
// channel.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EventsTotal     *prometheus.CounterVec
	MessagesTotal   *prometheus.CounterVec
	RejectionsTotal *prometheus.CounterVec
	SessionsGauge   prometheus.Gauge
	DeliveryDrops   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hubchat",
			Name:      "events_total",
			Help:      "Inbound events processed by the dispatcher, by type.",
		}, []string{"type"}),
		MessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hubchat",
			Name:      "messages_total",
			Help:      "Messages appended to a log, by target (room name or dm).",
		}, []string{"target"}),
		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hubchat",
			Name:      "rejections_total",
			Help:      "Domain errors surfaced to sessions, by reason.",
		}, []string{"reason"}),
		SessionsGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hubchat",
			Name:      "sessions",
			Help:      "Currently registered transport sessions.",
		}),
		DeliveryDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hubchat",
			Name:      "delivery_drops_total",
			Help:      "Outbound events dropped because a session buffer was full.",
		}),
	}
}
