package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SaleStatusPending   = "pending"
	SaleStatusDelivered = "delivered"
	SaleStatusCancelled = "cancelled"
)

// Sale is created once at checkout together with its details and payment and
// is never mutated afterwards except for soft delete and receipt linkage.
// Total is always server-computed.
type Sale struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_sales_business_created"`
	ClientID       *uuid.UUID      `gorm:"type:uuid;index"`
	SellerID       uuid.UUID       `gorm:"type:uuid;not null;index"` // BusinessMember
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status         string          `gorm:"type:varchar(20);not null"`
	PaymentMethod  string          `gorm:"type:varchar(30);not null"`
	Notes          *string
	ReceiptTokenID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time  `gorm:"index:idx_sales_business_created"`
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`

	Details []SaleDetail    `gorm:"foreignKey:SaleID"`
	Payment *Payment        `gorm:"foreignKey:SaleID"`
	Client  *Client         `gorm:"foreignKey:ClientID"`
	Seller  *BusinessMember `gorm:"foreignKey:SellerID"`
}

// SaleDetail is one immutable cart line with the unit price snapshot.
type SaleDetail struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductVariantID *uuid.UUID      `gorm:"type:uuid"`
	Quantity         int             `gorm:"not null;check:chk_sale_details_quantity,quantity > 0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt        time.Time

	Product *Product        `gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `gorm:"foreignKey:ProductVariantID"`
}

// Payment is 1:1 with a committed sale.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method    string          `gorm:"type:varchar(30);not null"`
	Date      time.Time       `gorm:"not null"`
	CreatedAt time.Time
}
