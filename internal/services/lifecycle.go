package services

import (
	"context"
	"time"

	"littlegrow/internal/events"
	"littlegrow/internal/models"
	"littlegrow/internal/notifications"
	"littlegrow/pkg/logger"
)

// Notifier hands a rendered message to the delivery side channel. It must not block.
type Notifier interface {
	Dispatch(msg notifications.Message)
}

// Transition triggers, recorded on events and logs.
const (
	TriggerWebhook  = "webhook"
	TriggerAdmin    = "admin"
	TriggerCustomer = "customer"
)

// TransitionResult reports the order after a transition attempt. Applied is
// false when the attempt was a no-op; Order is nil when no such order exists.
type TransitionResult struct {
	Order   *models.Order
	Applied bool
}

// DefaultPublishTimeout bounds an event publish when no timeout is configured.
const DefaultPublishTimeout = 3 * time.Second

// sideEffects bundles the post-commit, best-effort consumers of a transition.
type sideEffects struct {
	notifier       Notifier
	publisher      events.Publisher
	publishTimeout time.Duration
	log            *logger.Logger
}

func newSideEffects(notifier Notifier, publisher events.Publisher, publishTimeout time.Duration, log *logger.Logger) sideEffects {
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	return sideEffects{notifier: notifier, publisher: publisher, publishTimeout: publishTimeout, log: log}
}

func (s sideEffects) notify(ctx context.Context, build func() (notifications.Message, error)) {
	if s.notifier == nil {
		return
	}
	msg, err := build()
	if err != nil {
		s.log.Warn(ctx, "failed to render notification", err)
		return
	}
	s.notifier.Dispatch(msg)
}

func (s sideEffects) publish(ctx context.Context, eventType string, order *models.Order, trigger string) {
	if s.publisher == nil {
		return
	}
	// The order is already committed; a stalled broker must not hold the caller.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, events.NewOrderEvent(eventType, order, trigger)); err != nil {
		s.log.Warn(ctx, "failed to publish "+eventType+" event", err)
		return
	}
	s.log.Debug(ctx, "published "+eventType+" event")
}
