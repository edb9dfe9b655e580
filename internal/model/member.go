package model

import (
	"time"

	"rifapos/internal/identity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MemberStatusActive   = "active"
	MemberStatusInactive = "inactive"
)

// BusinessMember joins a user to a business. Sales reference the member as
// seller, never the user directly.
type BusinessMember struct {
	ID          uuid.UUID                                `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID  uuid.UUID                                `gorm:"type:uuid;not null;uniqueIndex:idx_member_business_user"`
	UserID      uuid.UUID                                `gorm:"type:uuid;not null;uniqueIndex:idx_member_business_user"`
	DisplayName string                                   `gorm:"not null;default:''"`
	Role        string                                   `gorm:"type:varchar(20);not null"` // owner | employee | customer
	Status      string                                   `gorm:"type:varchar(20);not null;default:'active'"`
	Permissions datatypes.JSONType[identity.Permissions] `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
