package services

import (
	"context"

	"littlegrow/internal/models"
	"littlegrow/internal/repositories"
	"littlegrow/pkg/apperrors"
)

// ProductService exposes the inventory ledger read-only and seeds it.
// Stock only ever decreases through fulfillment.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListInventory returns every product with its current stock.
func (s *ProductService) ListInventory(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperrors.FromDB(err, "failed to list products")
	}
	return products, nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, "failed to load product")
	}
	if product == nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "product %s not found", id)
	}
	return product, nil
}

// Seed inserts the products that do not exist yet and reports how many were created.
func (s *ProductService) Seed(ctx context.Context, products []models.Product) (int, error) {
	created := 0
	for i := range products {
		existing, err := s.repo.GetByID(ctx, products[i].ID)
		if err != nil {
			return created, apperrors.FromDB(err, "failed to look up product")
		}
		if existing != nil {
			continue
		}
		if err := s.repo.Create(ctx, &products[i]); err != nil {
			return created, apperrors.FromDB(err, "failed to seed product "+products[i].ID)
		}
		created++
	}
	return created, nil
}
