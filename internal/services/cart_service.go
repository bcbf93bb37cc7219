package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"littlegrow/internal/models"
	"littlegrow/internal/repositories"
	"littlegrow/pkg/apperrors"
)

// CartService manages the server-owned cart of each user.
type CartService struct {
	store    repositories.CartStore
	products repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(store repositories.CartStore, products repositories.ProductRepository) *CartService {
	return &CartService{store: store, products: products}
}

func (s *CartService) product(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, apperrors.FromDB(err, "failed to load product")
	}
	if product == nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "product %s not found", productID)
	}
	return product, nil
}

// GetCart prices the cart against the current catalog. Lines whose product
// no longer exists are dropped.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	quantities, err := s.store.Items(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransient, err, "failed to read cart")
	}

	cart := &models.Cart{UserID: userID, Items: []models.CartLine{}, Total: decimal.Zero}
	for productID, qty := range quantities {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return nil, apperrors.FromDB(err, "failed to load product")
		}
		if product == nil {
			_ = s.store.Remove(ctx, userID, productID)
			continue
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
		cart.Items = append(cart.Items, models.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  qty,
			Stock:     product.Stock,
			Subtotal:  subtotal,
		})
		cart.Total = cart.Total.Add(subtotal)
	}
	sort.Slice(cart.Items, func(i, j int) bool { return cart.Items[i].ProductID < cart.Items[j].ProductID })
	return cart, nil
}

// AddItem adds qty of a product to the cart, capped by available stock.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	current, err := s.store.Quantity(ctx, userID, productID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransient, err, "failed to read cart")
	}
	if current+qty > product.Stock {
		return nil, apperrors.Newf(apperrors.CodeValidation, "only %d of %s in stock", product.Stock, product.Name).
			WithDetails(map[string]int{"stock": product.Stock, "in_cart": current})
	}
	if err := s.store.SetQuantity(ctx, userID, productID, current+qty); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransient, err, "failed to update cart")
	}
	return s.GetCart(ctx, userID)
}

// UpdateItem replaces the quantity of a product already in the cart.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > product.Stock {
		return nil, apperrors.Newf(apperrors.CodeValidation, "only %d of %s in stock", product.Stock, product.Name).
			WithDetails(map[string]int{"stock": product.Stock})
	}
	current, err := s.store.Quantity(ctx, userID, productID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransient, err, "failed to read cart")
	}
	if current == 0 {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "product %s is not in the cart", productID)
	}
	if err := s.store.SetQuantity(ctx, userID, productID, qty); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransient, err, "failed to update cart")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	if err := s.store.Remove(ctx, userID, productID); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransient, err, "failed to update cart")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return apperrors.Wrap(apperrors.CodeTransient, err, "failed to clear cart")
	}
	return nil
}
