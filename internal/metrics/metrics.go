package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "littlegrow"

// Transition outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeNoop     = "noop"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// Metrics groups the collectors for the order lifecycle.
type Metrics struct {
	Transitions         *prometheus.CounterVec
	WebhookCallbacks    *prometheus.CounterVec
	Notifications       *prometheus.CounterVec
	FulfillmentDuration prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order state transition attempts by target transition and outcome.",
		}, []string{"transition", "outcome"}),
		WebhookCallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_callbacks_total",
			Help:      "Payment processor callbacks by handling result.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification delivery attempts by kind and result.",
		}, []string{"kind", "result"}),
		FulfillmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fulfillment_duration_seconds",
			Help:      "Wall time of fulfillment transactions.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}
	reg.MustRegister(m.Transitions, m.WebhookCallbacks, m.Notifications, m.FulfillmentDuration)
	return m
}

// ObserveTransition counts a transition attempt. Safe on a nil receiver.
func (m *Metrics) ObserveTransition(transition, outcome string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(transition, outcome).Inc()
}

func (m *Metrics) ObserveWebhook(result string) {
	if m == nil {
		return
	}
	m.WebhookCallbacks.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveNotification(kind, result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveFulfillment(started time.Time) {
	if m == nil {
		return
	}
	m.FulfillmentDuration.Observe(time.Since(started).Seconds())
}
