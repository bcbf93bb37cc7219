package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product carries the inventory-relevant fields of a catalog product.
type Product struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name      string          `json:"name" gorm:"type:varchar(255);not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(14,2);not null"`
	Stock     int             `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
