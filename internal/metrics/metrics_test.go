package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveTransition("completed", OutcomeApplied)
	m.ObserveTransition("completed", OutcomeNoop)
	m.ObserveTransition("completed", OutcomeNoop)
	m.ObserveWebhook("rejected")
	m.ObserveNotification("payment_success", "sent")
	m.ObserveFulfillment(time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("completed", OutcomeApplied)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("completed", OutcomeNoop)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookCallbacks.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("payment_success", "sent")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var histogramSamples uint64
	for _, mf := range families {
		if mf.GetName() == "littlegrow_fulfillment_duration_seconds" {
			histogramSamples = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), histogramSamples)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition("cancelled", OutcomeApplied)
		m.ObserveWebhook("accepted")
		m.ObserveNotification("new_order", "failed")
		m.ObserveFulfillment(time.Now())
	})
}
