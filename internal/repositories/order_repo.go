package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"littlegrow/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) error
	// FindByID loads an order with its line items. Missing orders yield (nil, nil).
	FindByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	// ListByStatus returns orders in status without their line items, oldest first.
	ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
	// TransitionStatus moves an order from one status to another only if it is
	// still in from. It reports whether this call performed the transition.
	TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus, at time.Time) (bool, error)
	SetPaymentToken(ctx context.Context, id, token string) error
}
