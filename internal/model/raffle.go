package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RaffleStatusActive   = "active"
	RaffleStatusFinished = "finished"
)

// Raffle converts sale totals into lottery tickets at TicketPrice per ticket.
// LastTicketNumber is the per-raffle counter; it only ever grows, so numbers
// are never reused even after tickets are deleted.
type Raffle struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Motive       string          `gorm:"not null"`
	Prize        string          `gorm:"not null"`
	TicketPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DrawDate     time.Time       `gorm:"not null"`
	Status       string          `gorm:"type:varchar(20);not null;default:'active'"`
	DrawCriteria int             `gorm:"not null;default:1;check:chk_raffles_draw_criteria,draw_criteria >= 1"`

	// Prizes maps place ("1", "2", ...) to the prize for that place.
	Prizes           datatypes.JSONType[map[string]string] `gorm:"type:jsonb"`
	LastTicketNumber int                                   `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// RaffleTicket is one lottery entry earned by a sale.
type RaffleTicket struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RaffleID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_raffle_ticket_number"`
	Number    int        `gorm:"not null;uniqueIndex:idx_raffle_ticket_number"`
	IsWinner  bool       `gorm:"not null;default:false"`
	Place     *int
	SaleID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientID  *uuid.UUID `gorm:"type:uuid;index"` // nil for anonymous sales
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
