package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"littlegrow/internal/database"
	"littlegrow/internal/events"
	"littlegrow/internal/metrics"
	"littlegrow/internal/models"
	"littlegrow/internal/notifications"
	"littlegrow/internal/repositories"
	"littlegrow/pkg/apperrors"
	"littlegrow/pkg/logger"
)

// FulfillRequest asks for an order to be marked COMPLETED.
type FulfillRequest struct {
	OrderID string
	Trigger string
	// SkipInventory flips the status without touching stock.
	SkipInventory bool
}

// FulfillmentService owns the PENDING -> COMPLETED transition and the
// inventory decrement that goes with it.
type FulfillmentService struct {
	db       *database.Client
	orders   repositories.OrderRepository
	products repositories.ProductRepository
	effects  sideEffects
	metrics  *metrics.Metrics
}

// NewFulfillmentService creates a new FulfillmentService.
func NewFulfillmentService(
	db *database.Client,
	orders repositories.OrderRepository,
	products repositories.ProductRepository,
	notifier Notifier,
	publisher events.Publisher,
	publishTimeout time.Duration,
	log *logger.Logger,
	m *metrics.Metrics,
) *FulfillmentService {
	return &FulfillmentService{
		db:       db,
		orders:   orders,
		products: products,
		effects:  newSideEffects(notifier, publisher, publishTimeout, log),
		metrics:  m,
	}
}

// Fulfill completes a PENDING order and decrements stock for each line item
// in one transaction. Missing or already-terminal orders are a successful
// no-op. The transaction ignores cancellation of ctx once started.
func (s *FulfillmentService) Fulfill(ctx context.Context, req FulfillRequest) (*TransitionResult, error) {
	ctx = s.effects.log.WithFields(ctx, map[string]any{"order_id": req.OrderID, "trigger": req.Trigger})
	txCtx := context.WithoutCancel(ctx)
	started := time.Now()

	var (
		order   *models.Order
		applied bool
	)
	err := s.db.WithTx(txCtx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		products := s.products.WithTx(tx)

		found, err := orders.FindByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		order = found
		if order == nil || order.Status.IsTerminal() {
			return nil
		}

		now := time.Now().UTC()
		moved, err := orders.TransitionStatus(txCtx, order.ID, models.OrderStatusPending, models.OrderStatusCompleted, now)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}

		if !req.SkipInventory {
			// Fixed lock order across concurrent fulfillments.
			items := append([]models.OrderLineItem(nil), order.Items...)
			sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
			for _, item := range items {
				if err := products.DecrementStock(txCtx, item.ProductID, item.Quantity); err != nil {
					if errors.Is(err, repositories.ErrInsufficientStock) {
						return apperrors.Wrap(apperrors.CodeFulfillmentFailed, err, "insufficient stock to fulfill order").
							WithDetails(map[string]any{"order_id": order.ID, "product_id": item.ProductID})
					}
					return err
				}
			}
		}

		order.Status = models.OrderStatusCompleted
		order.UpdatedAt = now
		applied = true
		return nil
	})
	if !applied {
		// A racing transition may have won between the read and the update.
		if err == nil && order != nil && !order.Status.IsTerminal() {
			order, err = s.orders.FindByID(txCtx, req.OrderID)
		}
	}
	s.metrics.ObserveFulfillment(started)

	if err != nil {
		s.metrics.ObserveTransition("complete", metrics.OutcomeFailed)
		err = apperrors.FromDB(err, "fulfillment transaction failed")
		if apperrors.Is(err, apperrors.CodeFulfillmentFailed) {
			s.effects.log.Error(ctx, "fulfillment rolled back; order left PENDING", err)
		} else {
			s.effects.log.Warn(ctx, "fulfillment transaction failed", err)
		}
		return nil, err
	}

	switch {
	case order == nil:
		s.metrics.ObserveTransition("complete", metrics.OutcomeNotFound)
		s.effects.log.Info(ctx, "fulfillment skipped: order not found")
		return &TransitionResult{}, nil
	case !applied:
		s.metrics.ObserveTransition("complete", metrics.OutcomeNoop)
		s.effects.log.Info(ctx, "fulfillment skipped: order already "+string(order.Status))
		return &TransitionResult{Order: order}, nil
	}

	s.metrics.ObserveTransition("complete", metrics.OutcomeApplied)
	s.effects.log.Info(ctx, "order completed")
	s.effects.notify(ctx, func() (notifications.Message, error) { return notifications.PaymentSuccessMessage(order) })
	s.effects.publish(ctx, events.TypeOrderCompleted, order, req.Trigger)
	return &TransitionResult{Order: order, Applied: true}, nil
}
