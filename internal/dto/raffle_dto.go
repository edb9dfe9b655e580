package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateRaffleRequest struct {
	Motive       string            `json:"motive"       validate:"required,max=200"`
	Prize        string            `json:"prize"        validate:"required,max=200"`
	TicketPrice  decimal.Decimal   `json:"ticketPrice"  validate:"required,gt=0"`
	DrawDate     time.Time         `json:"drawDate"     validate:"required"`
	DrawCriteria int               `json:"drawCriteria" validate:"omitempty,min=1,max=1000"`
	Prizes       map[string]string `json:"prizes"`
}

type DrawRequest struct {
	Place *int `json:"place" validate:"omitempty,min=1"`
}

// GenerateBatchRequest backfills tickets for historical sales. Dates are
// RFC 3339 timestamps or YYYY-MM-DD days; a bare endDate covers the whole day.
type GenerateBatchRequest struct {
	StartDate string   `json:"startDate" validate:"required"`
	EndDate   string   `json:"endDate"   validate:"required"`
	ClientIDs []string `json:"clientIds" validate:"omitempty,dive,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RaffleResponse struct {
	ID               string            `json:"id"`
	BusinessID       string            `json:"businessId"`
	Motive           string            `json:"motive"`
	Prize            string            `json:"prize"`
	TicketPrice      decimal.Decimal   `json:"ticketPrice"`
	DrawDate         time.Time         `json:"drawDate"`
	Status           string            `json:"status"`
	DrawCriteria     int               `json:"drawCriteria"`
	Prizes           map[string]string `json:"prizes"`
	LastTicketNumber int               `json:"lastTicketNumber"`
	CreatedAt        time.Time         `json:"createdAt"`
}

type TicketResponse struct {
	ID       string  `json:"id"`
	Number   int     `json:"number"`
	IsWinner bool    `json:"isWinner"`
	Place    *int    `json:"place"`
	SaleID   string  `json:"saleId"`
	ClientID *string `json:"clientId"`
}

type DrawResponse struct {
	Winner      TicketResponse   `json:"winner"`
	DrawHistory []TicketResponse `json:"drawHistory"`
	Place       int              `json:"place"`
	Prize       string           `json:"prize,omitempty"`
}

// AllocationDetail reports the tickets created for one sale in one raffle.
type AllocationDetail struct {
	SaleID   string `json:"saleId"`
	RaffleID string `json:"raffleId"`
	Tickets  int    `json:"tickets"`
	Numbers  []int  `json:"numbers"`
}

type GenerateBatchResponse struct {
	TotalGenerated int                `json:"totalGenerated"`
	Details        []AllocationDetail `json:"details"`
}
