package repository

import (
	"context"

	"rifapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RaffleRepository interface {
	Create(ctx context.Context, r *model.Raffle) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Raffle, error)
	ListActive(ctx context.Context, businessID uuid.UUID) ([]model.Raffle, error)
	// ListAllActive spans every business; used by the background reconciler.
	ListAllActive(ctx context.Context) ([]model.Raffle, error)
	ListTickets(ctx context.Context, raffleID uuid.UUID) ([]model.RaffleTicket, error)

	// Used inside transactions; the raffle row lock serialises ticket
	// numbering and draws for one raffle.
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Raffle, error)
	// CountTicketsForSaleTx counts every ticket ever issued to the sale,
	// soft-deleted ones included, so deleted tickets are not re-issued.
	CountTicketsForSaleTx(tx *gorm.DB, raffleID, saleID uuid.UUID) (int, error)
	CreateTicketsTx(tx *gorm.DB, tickets []model.RaffleTicket) error
	SetLastTicketNumberTx(tx *gorm.DB, raffleID uuid.UUID, n int) error
	EligibleTicketsTx(tx *gorm.DB, raffleID uuid.UUID) ([]model.RaffleTicket, error)
	PlaceTakenTx(tx *gorm.DB, raffleID uuid.UUID, place int) (bool, error)
	MarkWinnerTx(tx *gorm.DB, ticketID uuid.UUID, place int) error
	SetStatusTx(tx *gorm.DB, raffleID uuid.UUID, status string) error
}

type raffleRepo struct{ db *gorm.DB }

func NewRaffleRepository(db *gorm.DB) RaffleRepository { return &raffleRepo{db: db} }

func (r *raffleRepo) Create(ctx context.Context, raffle *model.Raffle) error {
	return translate(r.db.WithContext(ctx).Create(raffle).Error)
}

func (r *raffleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Raffle, error) {
	var raffle model.Raffle
	if err := r.db.WithContext(ctx).First(&raffle, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "raffle", id)
	}
	return &raffle, nil
}

func (r *raffleRepo) ListActive(ctx context.Context, businessID uuid.UUID) ([]model.Raffle, error) {
	var raffles []model.Raffle
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND status = ?", businessID, model.RaffleStatusActive).
		Order("created_at ASC").
		Find(&raffles).Error
	return raffles, translate(err)
}

func (r *raffleRepo) ListAllActive(ctx context.Context) ([]model.Raffle, error) {
	var raffles []model.Raffle
	err := r.db.WithContext(ctx).
		Where("status = ?", model.RaffleStatusActive).
		Order("business_id, created_at ASC").
		Find(&raffles).Error
	return raffles, translate(err)
}

func (r *raffleRepo) ListTickets(ctx context.Context, raffleID uuid.UUID) ([]model.RaffleTicket, error) {
	var tickets []model.RaffleTicket
	err := r.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("number ASC").
		Find(&tickets).Error
	return tickets, translate(err)
}

func (r *raffleRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Raffle, error) {
	var raffle model.Raffle
	if err := forUpdate(tx).First(&raffle, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "raffle", id)
	}
	return &raffle, nil
}

func (r *raffleRepo) CountTicketsForSaleTx(tx *gorm.DB, raffleID, saleID uuid.UUID) (int, error) {
	var n int64
	err := tx.Unscoped().Model(&model.RaffleTicket{}).
		Where("raffle_id = ? AND sale_id = ?", raffleID, saleID).
		Count(&n).Error
	return int(n), translate(err)
}

func (r *raffleRepo) CreateTicketsTx(tx *gorm.DB, tickets []model.RaffleTicket) error {
	if len(tickets) == 0 {
		return nil
	}
	return translate(tx.CreateInBatches(tickets, 500).Error)
}

func (r *raffleRepo) SetLastTicketNumberTx(tx *gorm.DB, raffleID uuid.UUID, n int) error {
	return translate(tx.Model(&model.Raffle{}).Where("id = ?", raffleID).
		Update("last_ticket_number", n).Error)
}

func (r *raffleRepo) EligibleTicketsTx(tx *gorm.DB, raffleID uuid.UUID) ([]model.RaffleTicket, error) {
	var tickets []model.RaffleTicket
	err := tx.Where("raffle_id = ? AND is_winner = false", raffleID).
		Order("number ASC").
		Find(&tickets).Error
	return tickets, translate(err)
}

func (r *raffleRepo) PlaceTakenTx(tx *gorm.DB, raffleID uuid.UUID, place int) (bool, error) {
	var n int64
	err := tx.Model(&model.RaffleTicket{}).
		Where("raffle_id = ? AND is_winner = true AND place = ?", raffleID, place).
		Count(&n).Error
	return n > 0, translate(err)
}

func (r *raffleRepo) MarkWinnerTx(tx *gorm.DB, ticketID uuid.UUID, place int) error {
	return translate(tx.Model(&model.RaffleTicket{}).Where("id = ?", ticketID).
		Updates(map[string]interface{}{"is_winner": true, "place": place}).Error)
}

func (r *raffleRepo) SetStatusTx(tx *gorm.DB, raffleID uuid.UUID, status string) error {
	return translate(tx.Model(&model.Raffle{}).Where("id = ?", raffleID).
		Update("status", status).Error)
}
