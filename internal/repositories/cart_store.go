package repositories

import "context"

// CartStore keeps each user's cart as a mapping from product id to quantity.
type CartStore interface {
	// Items returns product id -> quantity for userID.
	Items(ctx context.Context, userID string) (map[string]int, error)
	// Quantity returns the quantity held for one product, 0 when absent.
	Quantity(ctx context.Context, userID, productID string) (int, error)
	// SetQuantity stores qty for the product, replacing any previous value.
	SetQuantity(ctx context.Context, userID, productID string, qty int) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}
