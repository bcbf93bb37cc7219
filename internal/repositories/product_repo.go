package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"littlegrow/internal/models"
)

// ErrInsufficientStock is returned when a decrement would drive stock negative
// or the product does not exist.
var ErrInsufficientStock = errors.New("insufficient stock")

// ProductRepository defines the interface for the inventory ledger.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	GetAll(ctx context.Context) ([]models.Product, error)
	// GetByID returns (nil, nil) when the product does not exist.
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// MissingIDs returns the subset of ids that have no product row.
	MissingIDs(ctx context.Context, ids []string) ([]string, error)
	Create(ctx context.Context, product *models.Product) error
	// DecrementStock subtracts qty from the product's stock, failing with
	// ErrInsufficientStock rather than going below zero.
	DecrementStock(ctx context.Context, id string, qty int) error
}
