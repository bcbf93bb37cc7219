package notifications

import (
	"context"
	"sync"
	"time"

	"littlegrow/internal/metrics"
	"littlegrow/pkg/logger"
)

// Transport performs one delivery attempt.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher hands messages to a Transport without blocking the caller.
// Each message gets exactly one attempt bounded by the configured timeout.
type Dispatcher struct {
	transport Transport
	timeout   time.Duration
	log       *logger.Logger
	metrics   *metrics.Metrics
	inflight  sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(transport Transport, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{transport: transport, timeout: timeout, log: log, metrics: m}
}

// Dispatch starts delivery in the background and returns immediately.
func (d *Dispatcher) Dispatch(msg Message) {
	ctx := d.log.WithFields(context.Background(), map[string]any{
		"notification": msg.Kind,
		"order_id":     msg.OrderID,
	})
	if msg.To == "" {
		d.log.Warn(ctx, "notification has no destination; skipped", nil)
		d.metrics.ObserveNotification(string(msg.Kind), "skipped")
		return
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error(ctx, "notification transport panicked", nil)
				d.metrics.ObserveNotification(string(msg.Kind), "failed")
			}
		}()

		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		if err := d.transport.Send(sendCtx, msg); err != nil {
			d.log.Warn(ctx, "notification delivery failed", err)
			d.metrics.ObserveNotification(string(msg.Kind), "failed")
			return
		}
		d.metrics.ObserveNotification(string(msg.Kind), "sent")
	}()
}

// Wait blocks until every in-flight delivery has finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}
