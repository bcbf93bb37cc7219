package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlegrow/internal/repositories"
	"littlegrow/internal/services"
	"littlegrow/internal/testutil"
	"littlegrow/pkg/apperrors"
)

func newCartService(t *testing.T) (*services.CartService, repositories.CartStore) {
	t.Helper()
	client := testutil.NewTestDB(t)
	testutil.SeedProduct(t, client, "p1", 10000, 3)
	testutil.SeedProduct(t, client, "p2", 2500, 10)
	store := repositories.NewMemoryCartStore()
	return services.NewCartService(store, repositories.NewGORMProductRepository(client.DB())), store
}

func TestCartService_AddAndPrice(t *testing.T) {
	carts, _ := newCartService(t)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "user-1", "p1", 2)
	require.NoError(t, err)
	cart, err := carts.AddItem(ctx, "user-1", "p2", 4)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "p1", cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.True(t, decimalInt(20000).Equal(cart.Items[0].Subtotal))
	assert.True(t, decimalInt(30000).Equal(cart.Total))

	cart, err = carts.AddItem(ctx, "user-1", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	other, err := carts.GetCart(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
	assert.True(t, other.Total.IsZero())
}

func TestCartService_StockBounds(t *testing.T) {
	carts, _ := newCartService(t)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "user-1", "p1", 4)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	_, err = carts.AddItem(ctx, "user-1", "p1", 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "user-1", "p1", 2)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err), "existing quantity counts toward stock")

	_, err = carts.UpdateItem(ctx, "user-1", "p1", 4)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
	_, err = carts.UpdateItem(ctx, "user-1", "p1", 0)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	cart, err := carts.UpdateItem(ctx, "user-1", "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	_, err = carts.UpdateItem(ctx, "user-1", "p2", 1)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err), "update needs the product in the cart")

	_, err = carts.AddItem(ctx, "user-1", "ghost", 1)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestCartService_RemoveAndClear(t *testing.T) {
	carts, store := newCartService(t)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "user-1", "p1", 1)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "user-1", "p2", 1)
	require.NoError(t, err)

	cart, err := carts.RemoveItem(ctx, "user-1", "p1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)

	// Lines for products that vanished from the catalog are dropped.
	require.NoError(t, store.SetQuantity(ctx, "user-1", "retired", 1))
	cart, err = carts.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	require.NoError(t, carts.Clear(ctx, "user-1"))
	cart, err = carts.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
