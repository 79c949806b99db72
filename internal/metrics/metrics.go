package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// EventsGenerated — событий собрано генератором.
	EventsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cart_producer",
		Subsystem: "loop",
		Name:      "events_generated_total",
		Help:      "Total number of generated cart abandonment events",
	})

	// EventsSubmitted — записей принято sink'ом.
	EventsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cart_producer",
		Subsystem: "loop",
		Name:      "events_submitted_total",
		Help:      "Total number of events accepted by the stream sink",
	})

	// EventsAcked — записей подтверждено брокером.
	EventsAcked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cart_producer",
		Subsystem: "loop",
		Name:      "events_acked_total",
		Help:      "Total number of events acknowledged by the stream",
	})

	// EventsFailed — отказы: синхронные и из callback'а.
	EventsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cart_producer",
		Subsystem: "loop",
		Name:      "events_failed_total",
		Help:      "Total number of events that were not delivered",
	})

	EncodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cart_producer",
		Subsystem: "loop",
		Name:      "encode_errors_total",
		Help:      "Total number of events skipped because encoding failed",
	})

	// PauseInterrupts — сколько пауз было прервано сигналом.
	PauseInterrupts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cart_producer",
		Subsystem: "loop",
		Name:      "pause_interrupts_total",
		Help:      "Number of pacing pauses woken up before they elapsed",
	})

	CartItems = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cart_producer",
		Subsystem: "cart",
		Name:      "items",
		Help:      "Number of distinct products per generated cart",
		Buckets:   prometheus.LinearBuckets(1, 1, 10),
	})

	CartTotal = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cart_producer",
		Subsystem: "cart",
		Name:      "total_value",
		Help:      "Abandoned cart value (sum of quantity * price)",
		Buckets:   prometheus.ExponentialBuckets(100, 2, 12),
	})
)

// Register регистрирует все метрики в заданном реестре.
// Можно вызвать без аргументов, чтобы зарегистрировать в DefaultRegisterer.
func Register(registerers ...prometheus.Registerer) {
	once.Do(func() {
		var reg prometheus.Registerer
		if len(registerers) > 0 && registerers[0] != nil {
			reg = registerers[0]
		} else {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			EventsGenerated,
			EventsSubmitted,
			EventsAcked,
			EventsFailed,
			EncodeErrors,
			PauseInterrupts,
			CartItems,
			CartTotal,
		)
	})
}
