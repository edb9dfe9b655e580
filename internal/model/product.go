package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Product is a sellable item. When Variants exist, Stock is always the sum of
// the variants' stock and is only ever written together with them.
type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"index;not null"`
	Description  *string
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock        int             `gorm:"not null;default:0;check:chk_products_stock,stock >= 0"`
	Status       string          `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

// IsActive reports whether the product can be sold.
func (p *Product) IsActive() bool { return p.Status == ProductStatusActive }

// ProductVariant is a size/color-specific stock-keeping unit of a Product.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Color     string
	Size      string
	SKU       string `gorm:"column:sku;index"`
	Stock     int    `gorm:"not null;default:0;check:chk_product_variants_stock,stock >= 0"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
