package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"littlegrow/internal/models"
	"littlegrow/internal/repositories"
	"littlegrow/internal/services"
	"littlegrow/pkg/apperrors"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) WithTx(*gorm.DB) repositories.ProductRepository {
	return m
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) MissingIDs(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	args := m.Called(ctx, id, qty)
	return args.Error(0)
}

func TestProductService_ListInventory(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)
	ctx := context.Background()

	expected := []models.Product{
		{ID: "p1", Name: "Monstera", Price: decimal.NewFromInt(10000), Stock: 10},
		{ID: "p2", Name: "Pothos", Price: decimal.NewFromInt(5000), Stock: 0},
	}
	mockRepo.On("GetAll", ctx).Return(expected, nil).Once()

	products, err := service.ListInventory(ctx)
	assert.NoError(t, err)
	assert.Equal(t, expected, products)

	mockRepo.On("GetAll", ctx).Return([]models.Product(nil), errors.New("connection reset")).Once()
	_, err = service.ListInventory(ctx)
	assert.Error(t, err)
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, "p1").Return(&models.Product{ID: "p1", Stock: 3}, nil).Once()
	product, err := service.GetProduct(ctx, "p1")
	assert.NoError(t, err)
	assert.Equal(t, 3, product.Stock)

	mockRepo.On("GetByID", ctx, "nope").Return(nil, nil).Once()
	_, err = service.GetProduct(ctx, "nope")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_SeedSkipsExisting(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, "p1").Return(&models.Product{ID: "p1"}, nil).Once()
	mockRepo.On("GetByID", ctx, "p2").Return(nil, nil).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Product) bool { return p.ID == "p2" })).Return(nil).Once()

	created, err := service.Seed(ctx, []models.Product{{ID: "p1"}, {ID: "p2"}})
	assert.NoError(t, err)
	assert.Equal(t, 1, created)
	mockRepo.AssertExpectations(t)
}
