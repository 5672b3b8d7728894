package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hotel_sync"

const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Metrics holds the sync engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	webhookEvents     *prometheus.CounterVec
	webhookProcessing *prometheus.HistogramVec
	channelPush       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook events by type and outcome.",
		}, []string{"event", "outcome"}),
		webhookProcessing: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_processing_seconds",
			Help:      "Time spent applying a webhook event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event"}),
		channelPush: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_push_total",
			Help:      "Outbound channel pushes by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.webhookEvents, m.webhookProcessing, m.channelPush)
	}
	return m
}

func (m *Metrics) WebhookEvent(event, outcome string) {
	if m == nil {
		return
	}
	if event == "" {
		event = "unknown"
	}
	m.webhookEvents.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) ObserveProcessing(event string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.webhookProcessing.WithLabelValues(event).Observe(elapsed.Seconds())
}

func (m *Metrics) ChannelPush(kind string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSucceeded
	if err != nil {
		outcome = OutcomeFailed
	}
	m.channelPush.WithLabelValues(kind, outcome).Inc()
}

// WebhookEventCount exposes a counter for tests and health checks.
func (m *Metrics) WebhookEventCount(event, outcome string) prometheus.Counter {
	return m.webhookEvents.WithLabelValues(event, outcome)
}

func (m *Metrics) ChannelPushCount(kind, outcome string) prometheus.Counter {
	return m.channelPush.WithLabelValues(kind, outcome)
}
