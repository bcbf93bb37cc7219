// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"littlegrow/internal/database"
	"littlegrow/internal/models"
)

// NewTestDB opens a private in-memory sqlite database with the schema applied.
// The pool is capped at one connection so concurrent transactions queue
// instead of tripping sqlite's shared-cache table locks.
func NewTestDB(t *testing.T) *database.Client {
	t.Helper()

	dsn := "file:littlegrow_" + uuid.NewString() + "?mode=memory&cache=shared"
	client, err := database.Open(database.Config{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1})
	require.NoError(t, err, "open test database")
	require.NoError(t, client.Migrate(context.Background()), "migrate test database")

	t.Cleanup(func() { _ = client.Close() })
	return client
}

// SeedProduct inserts a product with the given stock and price.
func SeedProduct(t *testing.T, client *database.Client, id string, price int64, stock int) models.Product {
	t.Helper()

	product := models.Product{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(price), Stock: stock}
	require.NoError(t, client.DB().Create(&product).Error, "seed product %s", id)
	return product
}

// StockOf reads the current stock of a product.
func StockOf(t *testing.T, client *database.Client, id string) int {
	t.Helper()

	var product models.Product
	require.NoError(t, client.DB().First(&product, "id = ?", id).Error, "load product %s", id)
	return product.Stock
}
