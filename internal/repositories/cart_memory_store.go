package repositories

import (
	"context"
	"sync"
)

// MemoryCartStore is an in-memory implementation of CartStore, used when no
// Redis instance is configured.
type MemoryCartStore struct {
	carts map[string]map[string]int
	mu    sync.RWMutex
}

// NewMemoryCartStore creates a new instance of MemoryCartStore.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		carts: make(map[string]map[string]int),
	}
}

func (s *MemoryCartStore) Items(_ context.Context, userID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make(map[string]int, len(s.carts[userID]))
	for productID, qty := range s.carts[userID] {
		items[productID] = qty
	}
	return items, nil
}

func (s *MemoryCartStore) Quantity(_ context.Context, userID, productID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.carts[userID][productID], nil
}

func (s *MemoryCartStore) SetQuantity(_ context.Context, userID, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		cart = make(map[string]int)
		s.carts[userID] = cart
	}
	cart[productID] = qty
	return nil
}

func (s *MemoryCartStore) Remove(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts[userID], productID)
	if len(s.carts[userID]) == 0 {
		delete(s.carts, userID)
	}
	return nil
}

func (s *MemoryCartStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}
