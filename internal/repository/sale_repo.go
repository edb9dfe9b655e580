package repository

import (
	"context"
	"time"

	"rifapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleRangeFilter selects committed sales of one business. Zero times leave
// the range open on that side; From is inclusive and To exclusive.
type SaleRangeFilter struct {
	BusinessID uuid.UUID
	From       time.Time
	To         time.Time
	ClientIDs  []uuid.UUID
}

type SaleRepository interface {
	// CreateTx inserts the sale together with its details and payment.
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	SetReceiptTokenTx(tx *gorm.DB, saleID, tokenID uuid.UUID) error
	ListInRange(ctx context.Context, filter SaleRangeFilter) ([]model.Sale, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return translate(tx.Create(s).Error)
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Details.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Details.Variant", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Payment").
		Preload("Client", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Seller").
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "sale", id)
	}
	return &s, nil
}

func (r *saleRepo) SetReceiptTokenTx(tx *gorm.DB, saleID, tokenID uuid.UUID) error {
	return translate(tx.Model(&model.Sale{}).Where("id = ?", saleID).
		Update("receipt_token_id", tokenID).Error)
}

func (r *saleRepo) ListInRange(ctx context.Context, filter SaleRangeFilter) ([]model.Sale, error) {
	q := r.db.WithContext(ctx).
		Where("business_id = ? AND status <> ?", filter.BusinessID, model.SaleStatusCancelled)
	if !filter.From.IsZero() {
		q = q.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("created_at < ?", filter.To)
	}
	if len(filter.ClientIDs) > 0 {
		q = q.Where("client_id IN ?", filter.ClientIDs)
	}
	var sales []model.Sale
	err := q.Order("created_at ASC").Find(&sales).Error
	return sales, translate(err)
}
