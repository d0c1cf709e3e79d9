package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the notifier
type Metrics struct {
	Deliveries       *prometheus.CounterVec
	DeliveryDuration *prometheus.HistogramVec
	Recorded         *prometheus.CounterVec
}

// NewMetrics registers the notifier metrics on reg. A nil reg registers
// nothing, which keeps repeated construction in tests safe.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sek",
				Subsystem: "notifier",
				Name:      "deliveries_total",
				Help:      "Notification deliveries by kind and outcome step",
			},
			[]string{"kind", "step"}, // step is "ok" on success
		),
		DeliveryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "sek",
				Subsystem: "notifier",
				Name:      "delivery_duration_seconds",
				Help:      "Time spent in the SMTP session",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		Recorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sek",
				Subsystem: "notifier",
				Name:      "recorded_events_total",
				Help:      "Notification events written to the history",
			},
			[]string{"notice_type"},
		),
	}
}

func (m *Metrics) observeDelivery(kind string, failed Step, seconds float64) {
	if m == nil {
		return
	}
	step := "ok"
	if failed != "" {
		step = string(failed)
	}
	m.Deliveries.WithLabelValues(kind, step).Inc()
	m.DeliveryDuration.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) observeRecorded(noticeType string) {
	if m == nil {
		return
	}
	m.Recorded.WithLabelValues(noticeType).Inc()
}
