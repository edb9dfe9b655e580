package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	StockMovementSale       = "sale"
	StockMovementAdjustment = "adjustment"
)

// StockMovement records every stock change of a product or variant.
// Rows are written inside the same transaction as the change they describe.
type StockMovement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID   *uuid.UUID `gorm:"type:uuid"`
	Type        string     `gorm:"not null"` // "sale" | "adjustment"
	Quantity    int        `gorm:"not null"` // positive = in, negative = out
	StockBefore int        `gorm:"not null"`
	StockAfter  int        `gorm:"not null"`
	Reason      string
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // sale id when Type is "sale"
	CreatedAt   time.Time
}
