package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CheckoutItem struct {
	ProductID string  `json:"productId" validate:"required,uuid"`
	VariantID *string `json:"variantId" validate:"omitempty,uuid"`
	Quantity  int     `json:"quantity"  validate:"required,min=1"`
}

// CheckoutRequest is the body of POST /sales. Total is what the client
// displayed to the customer; the server recomputes and compares it. A zero
// total is legal, so presence is checked by the service instead of a tag.
type CheckoutRequest struct {
	Items         []CheckoutItem   `json:"items"         validate:"required,min=1,dive"`
	ClientID      *string          `json:"clientId"      validate:"omitempty,uuid"`
	PaymentMethod string           `json:"paymentMethod" validate:"required,max=30"`
	Notes         *string          `json:"notes"         validate:"omitempty,max=500"`
	Total         *decimal.Decimal `json:"total"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CheckoutResponse struct {
	Success      bool    `json:"success"`
	SaleID       string  `json:"saleId"`
	ReceiptToken *string `json:"receiptToken"`
}

type SaleDetailResponse struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	VariantID   *string         `json:"variantId,omitempty"`
	VariantName string          `json:"variantName,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type PaymentResponse struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Date   time.Time       `json:"date"`
}

type SaleResponse struct {
	ID             string               `json:"id"`
	BusinessID     string               `json:"businessId"`
	ClientID       *string              `json:"clientId"`
	ClientName     string               `json:"clientName,omitempty"`
	SellerID       string               `json:"sellerId"`
	SellerName     string               `json:"sellerName,omitempty"`
	Total          decimal.Decimal      `json:"total"`
	Status         string               `json:"status"`
	PaymentMethod  string               `json:"paymentMethod"`
	Notes          *string              `json:"notes,omitempty"`
	ReceiptTokenID *string              `json:"receiptTokenId"`
	Details        []SaleDetailResponse `json:"details"`
	Payment        *PaymentResponse     `json:"payment,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
}
