package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	BusinessID uuid.UUID       `db:"business_id" json:"business_id"`
	Name       string          `db:"name" json:"name"`
	SKU        *string         `db:"sku" json:"sku,omitempty"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Stock      int             `db:"stock" json:"stock"`
	IsActive   bool            `db:"is_active" json:"is_active"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

type CreateProductRequest struct {
	Name  string          `json:"name" binding:"required,max=120"`
	SKU   *string         `json:"sku,omitempty" binding:"omitempty,max=64"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock" binding:"min=0"`
}

type UpdateProductRequest struct {
	Name     *string          `json:"name,omitempty" binding:"omitempty,min=1,max=120"`
	SKU      *string          `json:"sku,omitempty" binding:"omitempty,max=64"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	IsActive *bool            `json:"is_active,omitempty"`
}

// AdjustStockRequest moves stock by a signed delta, e.g. +24 for a delivery
// or -1 for a write-off.
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}
