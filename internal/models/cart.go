package models

import "github.com/shopspring/decimal"

// CartLine is one product in a user's server-side cart, priced from the catalog.
type CartLine struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Cart is a checkout-ready snapshot of a user's cart.
type Cart struct {
	UserID string          `json:"user_id"`
	Items  []CartLine      `json:"items"`
	Total  decimal.Decimal `json:"amount"`
}
