package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateVariantRequest struct {
	Color string `json:"color" validate:"max=50"`
	Size  string `json:"size"  validate:"max=50"`
	SKU   string `json:"sku"   validate:"max=64"`
	Stock int    `json:"stock" validate:"min=0"`
}

// CreateProductRequest: when Variants is non-empty Stock is ignored and
// derived from the variants.
type CreateProductRequest struct {
	Name         string                 `json:"name"         validate:"required,min=2,max=120"`
	Description  *string                `json:"description"  validate:"omitempty,max=1000"`
	CostPrice    decimal.Decimal        `json:"costPrice"    validate:"min=0"`
	SellingPrice decimal.Decimal        `json:"sellingPrice" validate:"min=0"`
	Stock        int                    `json:"stock"        validate:"min=0"`
	Variants     []CreateVariantRequest `json:"variants"     validate:"omitempty,dive"`
}

type SetVariantStockRequest struct {
	Stock *int `json:"stock" validate:"required,min=0"`
}

type StockMovementFilter struct {
	Page  int `form:"page,default=1"    validate:"min=1"`
	Limit int `form:"limit,default=100" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VariantResponse struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Size  string `json:"size"`
	SKU   string `json:"sku"`
	Stock int    `json:"stock"`
}

type ProductResponse struct {
	ID           string            `json:"id"`
	BusinessID   string            `json:"businessId"`
	Name         string            `json:"name"`
	Description  *string           `json:"description"`
	CostPrice    decimal.Decimal   `json:"costPrice"`
	SellingPrice decimal.Decimal   `json:"sellingPrice"`
	Stock        int               `json:"stock"`
	Status       string            `json:"status"`
	Variants     []VariantResponse `json:"variants"`
}

type StockMovementResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	VariantID   *string   `json:"variantId"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	StockBefore int       `json:"stockBefore"`
	StockAfter  int       `json:"stockAfter"`
	Reason      string    `json:"reason"`
	ReferenceID *string   `json:"referenceId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}
