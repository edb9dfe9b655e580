package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BusinessSettings is stored as JSONB on the business row.
type BusinessSettings struct {
	TaxRate      decimal.Decimal `json:"taxRate"`
	LiveDays     int             `json:"liveDays"`
	WeekStartDay int             `json:"weekStartDay"` // 0 = Sunday
}

// Business is the tenant root. Every other entity is scoped by BusinessID.
type Business struct {
	ID        uuid.UUID                             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string                                `gorm:"not null"`
	Slug      string                                `gorm:"uniqueIndex;not null"`
	Settings  datatypes.JSONType[BusinessSettings] `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
