package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ReceiptSnapshot is frozen at issuance time.
type ReceiptSnapshot struct {
	ClientName string          `json:"clientName"`
	Total      decimal.Decimal `json:"total"`
	SaleID     uuid.UUID       `json:"saleId"`
	BusinessID uuid.UUID       `json:"businessId"`
}

// ReceiptToken grants unauthenticated read access to one sale's receipt until ExpiresAt.
type ReceiptToken struct {
	ID           uuid.UUID                            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID   uuid.UUID                            `gorm:"type:uuid;not null;index"`
	SaleID       uuid.UUID                            `gorm:"type:uuid;not null;index"`
	Parameters   datatypes.JSONType[ReceiptSnapshot] `gorm:"type:jsonb;not null"`
	ExpiresAt    time.Time                            `gorm:"not null"`
	ViewCount    int                                  `gorm:"not null;default:0"`
	LastViewedAt *time.Time
	CreatedAt    time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t *ReceiptToken) Expired(now time.Time) bool { return now.After(t.ExpiresAt) }
