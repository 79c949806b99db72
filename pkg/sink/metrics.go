package sink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — общие для всех драйверов метрики, лейбл driver различает клиента.
var Metrics = struct {
	ConnectAttempts *prometheus.CounterVec
	ConnectErrors   *prometheus.CounterVec
	Accepted        *prometheus.CounterVec
	Acked           *prometheus.CounterVec
	Failed          *prometheus.CounterVec
	AckLatency      *prometheus.HistogramVec
	InFlight        *prometheus.GaugeVec
}{
	ConnectAttempts: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cart_producer", Subsystem: "sink", Name: "connect_attempts_total",
			Help: "Stream sink connect attempts",
		},
		[]string{"driver"},
	),
	ConnectErrors: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cart_producer", Subsystem: "sink", Name: "connect_errors_total",
			Help: "Stream sink connect errors",
		},
		[]string{"driver"},
	),
	Accepted: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cart_producer", Subsystem: "sink", Name: "accepted_total",
			Help: "Records accepted into the sink queue",
		},
		[]string{"driver"},
	),
	Acked: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cart_producer", Subsystem: "sink", Name: "acked_total",
			Help: "Records acknowledged by the broker",
		},
		[]string{"driver"},
	),
	Failed: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cart_producer", Subsystem: "sink", Name: "failed_total",
			Help: "Records the sink gave up on",
		},
		[]string{"driver"},
	),
	AckLatency: promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cart_producer", Subsystem: "sink", Name: "ack_latency_seconds",
			Help:    "Time from PublishAsync to broker acknowledgement (seconds)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver"},
	),
	InFlight: promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cart_producer", Subsystem: "sink", Name: "in_flight",
			Help: "Records accepted but not yet acknowledged",
		},
		[]string{"driver"},
	),
}
