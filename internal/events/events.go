// Package events publishes order lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"littlegrow/internal/models"
)

// Queue is where order lifecycle events land.
const Queue = "order_events"

const (
	TypeOrderCreated   = "order.created"
	TypeOrderCompleted = "order.completed"
	TypeOrderCancelled = "order.cancelled"
)

// OrderEvent is the wire payload of every lifecycle event.
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    string             `json:"order_id"`
	UserID     string             `json:"user_id"`
	Status     models.OrderStatus `json:"status"`
	Total      decimal.Decimal    `json:"total"`
	Trigger    string             `json:"trigger,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// NewOrderEvent builds an event from the order's current state.
func NewOrderEvent(eventType string, order *models.Order, trigger string) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		Total:      order.TotalPrice,
		Trigger:    trigger,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher emits lifecycle events. Implementations are best-effort.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

type amqpPublisher interface {
	Publish(ctx context.Context, queue, messageType string, body []byte) error
}

// AMQPPublisher sends events to the order events queue.
type AMQPPublisher struct {
	client amqpPublisher
}

func NewAMQPPublisher(client amqpPublisher) *AMQPPublisher {
	return &AMQPPublisher{client: client}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return p.client.Publish(ctx, Queue, event.Type, body)
}

// NopPublisher drops every event; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
