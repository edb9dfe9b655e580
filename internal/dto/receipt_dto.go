package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type BusinessResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ReceiptViewResponse is the public receipt: the frozen snapshot plus the
// current sale and business read models.
type ReceiptViewResponse struct {
	ClientName string           `json:"clientName"`
	Total      decimal.Decimal  `json:"total"`
	Sale       SaleResponse     `json:"sale"`
	Business   BusinessResponse `json:"business"`
	ViewCount  int              `json:"viewCount"`
	ExpiresAt  time.Time        `json:"expiresAt"`
}

type ReceiptTokenResponse struct {
	Token     string    `json:"token"`
	SaleID    string    `json:"saleId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type MostViewedReceipt struct {
	Token        string          `json:"token"`
	SaleID       string          `json:"saleId"`
	ClientName   string          `json:"clientName"`
	Total        decimal.Decimal `json:"total"`
	ViewCount    int             `json:"viewCount"`
	LastViewedAt *time.Time      `json:"lastViewedAt"`
}

type MostViewedFilter struct {
	Limit int `form:"limit,default=10" validate:"min=1,max=100"`
}
