package services

import (
	"context"
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

// CancellationService owns the PENDING -> CANCELLED transition.
type CancellationService struct {
	db       *database.Client
	orders   repositories.OrderRepository
	effects  sideEffects
	metrics  *metrics.Metrics
	opsEmail string
}

// NewCancellationService creates a new CancellationService.
func NewCancellationService(
	db *database.Client,
	orders repositories.OrderRepository,
	notifier Notifier,
	publisher events.Publisher,
	publishTimeout time.Duration,
	log *logger.Logger,
	m *metrics.Metrics,
	opsEmail string,
) *CancellationService {
	return &CancellationService{
		db:       db,
		orders:   orders,
		effects:  newSideEffects(notifier, publisher, publishTimeout, log),
		metrics:  m,
		opsEmail: opsEmail,
	}
}

// Cancel moves a PENDING order to CANCELLED on behalf of requester. Customers
// may only cancel their own orders. Cancelling a missing or already-terminal
// order succeeds without changing anything. Stock is never touched.
func (s *CancellationService) Cancel(ctx context.Context, orderID string, requester models.Identity) (*TransitionResult, error) {
	trigger := TriggerCustomer
	if requester.IsAdmin() {
		trigger = TriggerAdmin
	}
	ctx = s.effects.log.WithFields(ctx, map[string]any{
		"order_id":  orderID,
		"trigger":   trigger,
		"requester": requester.UserID,
	})

	var (
		order   *models.Order
		applied bool
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)

		found, err := orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		order = found
		if order == nil {
			return nil
		}
		if !requester.IsAdmin() && order.UserID != requester.UserID {
			return apperrors.New(apperrors.CodeForbidden, "order belongs to another user")
		}
		if order.Status.IsTerminal() {
			return nil
		}

		now := time.Now().UTC()
		moved, err := orders.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled, now)
		if err != nil || !moved {
			return err
		}
		order.Status = models.OrderStatusCancelled
		order.UpdatedAt = now
		applied = true
		return nil
	})
	if err == nil && !applied && order != nil && !order.Status.IsTerminal() {
		order, err = s.orders.FindByID(ctx, orderID)
	}

	if err != nil {
		if !apperrors.Is(err, apperrors.CodeForbidden) {
			s.metrics.ObserveTransition("cancel", metrics.OutcomeFailed)
			s.effects.log.Warn(ctx, "cancellation failed", err)
		}
		return nil, apperrors.FromDB(err, "cancellation failed")
	}

	switch {
	case order == nil:
		s.metrics.ObserveTransition("cancel", metrics.OutcomeNotFound)
		return &TransitionResult{}, nil
	case !applied:
		s.metrics.ObserveTransition("cancel", metrics.OutcomeNoop)
		s.effects.log.Info(ctx, "cancellation skipped: order already "+string(order.Status))
		return &TransitionResult{Order: order}, nil
	}

	s.metrics.ObserveTransition("cancel", metrics.OutcomeApplied)
	s.effects.log.Info(ctx, "order cancelled")
	s.effects.notify(ctx, func() (notifications.Message, error) {
		return notifications.CancellationMessage(order, requester, s.opsEmail)
	})
	s.effects.publish(ctx, events.TypeOrderCancelled, order, trigger)
	return &TransitionResult{Order: order, Applied: true}, nil
}
