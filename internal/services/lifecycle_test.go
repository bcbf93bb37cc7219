package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlegrow/internal/events"
	"littlegrow/internal/models"
	"littlegrow/internal/services"
	"littlegrow/internal/testutil"
	"littlegrow/pkg/logger"
)

// finishWithin runs fn and fails the test if it has not returned after d.
func finishWithin(t *testing.T, d time.Duration, what string, fn func()) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("%s still blocked after %s", what, d)
	}
}

func TestStalledBrokerDoesNotHoldTransitions(t *testing.T) {
	h := newHarness(t, true)
	testutil.SeedProduct(t, h.db, "p1", 10000, 10)
	testutil.SeedProduct(t, h.db, "p2", 5000, 10)

	broker := &stalledBroker{}
	publisher := events.NewAMQPPublisher(broker)
	log := logger.Nop()
	checkout := services.NewCheckoutService(h.db, h.orders, h.products, h.processor, time.Second, h.notifier, publisher, testPublishTimeout, log, testOpsEmail)
	fulfillment := services.NewFulfillmentService(h.db, h.orders, h.products, h.notifier, publisher, testPublishTimeout, log, h.metrics)
	cancellation := services.NewCancellationService(h.db, h.orders, h.notifier, publisher, testPublishTimeout, log, h.metrics, testOpsEmail)
	webhook := services.NewWebhookService(testServerKey, fulfillment, log, h.metrics)

	var paidID, cancelledID string
	finishWithin(t, 2*time.Second, "checkout", func() {
		for _, item := range []services.CheckoutItem{
			{ProductID: "p1", Name: "Monstera", Price: decimalInt(10000), Quantity: 2},
			{ProductID: "p2", Name: "Pothos", Price: decimalInt(5000), Quantity: 1},
		} {
			res, err := checkout.Checkout(context.Background(), services.CheckoutRequest{
				Customer: customer,
				Items:    []services.CheckoutItem{item},
				Amount:   item.Price.Mul(decimalInt(int64(item.Quantity))),
			})
			if !assert.NoError(t, err) {
				return
			}
			assert.NotEmpty(t, res.Token)
			if paidID == "" {
				paidID = res.OrderID
			} else {
				cancelledID = res.OrderID
			}
		}
	})
	require.NotEmpty(t, paidID)
	require.NotEmpty(t, cancelledID)

	finishWithin(t, 2*time.Second, "webhook", func() {
		res, err := webhook.Handle(context.Background(), signedNotification(paidID, "settlement", "20000.00"))
		if assert.NoError(t, err) {
			assert.Equal(t, services.WebhookFulfilled, res.Result)
		}
	})

	finishWithin(t, 2*time.Second, "cancellation", func() {
		res, err := cancellation.Cancel(context.Background(), cancelledID, customer)
		if assert.NoError(t, err) {
			assert.True(t, res.Applied)
		}
	})

	assert.Equal(t, models.OrderStatusCompleted, h.order(t, paidID).Status)
	assert.Equal(t, 8, testutil.StockOf(t, h.db, "p1"))
	assert.Equal(t, models.OrderStatusCancelled, h.order(t, cancelledID).Status)
	assert.Equal(t, 10, testutil.StockOf(t, h.db, "p2"))
	// two creates, one completion, one cancellation
	assert.Equal(t, 4, broker.count())
}

func TestPublishTimeoutDefaultsWhenUnset(t *testing.T) {
	h := newHarness(t, true)
	testutil.SeedProduct(t, h.db, "p1", 10000, 10)
	orderID := h.placeOrder(t, "p1", 10000, 1)

	recorder := &deadlineRecorder{}
	fulfillment := services.NewFulfillmentService(h.db, h.orders, h.products, h.notifier, recorder, 0, logger.Nop(), h.metrics)

	res, err := fulfillment.Fulfill(context.Background(), services.FulfillRequest{OrderID: orderID, Trigger: services.TriggerWebhook})
	require.NoError(t, err)
	require.True(t, res.Applied)

	require.Len(t, recorder.deadlines, 1)
	assert.WithinDuration(t, time.Now().Add(services.DefaultPublishTimeout), recorder.deadlines[0], time.Second)
}

type deadlineRecorder struct {
	deadlines []time.Time
}

func (r *deadlineRecorder) Publish(ctx context.Context, _ events.OrderEvent) error {
	if deadline, ok := ctx.Deadline(); ok {
		r.deadlines = append(r.deadlines, deadline)
	}
	return nil
}
